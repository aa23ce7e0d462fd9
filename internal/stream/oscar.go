package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"gleaner/internal/corpus"
	"gleaner/internal/logging"
	"gleaner/internal/services"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultOscarPageSize = 100

// OscarStreamer pages through a dataset via the Hugging Face datasets-server
// rows API. Each row's "text" field yields one sentence candidate; rows
// without a string text field are skipped silently.
type OscarStreamer struct {
	client   HTTPDoer
	baseURL  string
	dataset  string
	token    string
	pageSize int
	logger   *slog.Logger
}

// NewOscarStreamer builds a streamer against the given datasets-server base
// URL (scheme optional, https assumed). An empty token disables
// authentication.
func NewOscarStreamer(client HTTPDoer, baseURL, dataset, token string, pageSize int, logger *slog.Logger) *OscarStreamer {
	if client == nil {
		client = http.DefaultClient
	}
	if pageSize <= 0 {
		pageSize = defaultOscarPageSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	return &OscarStreamer{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		dataset:  dataset,
		token:    token,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Stream implements corpus.Streamer.
func (s *OscarStreamer) Stream(ctx context.Context, lang corpus.Language) (corpus.Iterator, error) {
	it := &oscarIterator{streamer: s, ctx: ctx, lang: lang}
	if err := it.fetchPage(); err != nil {
		return nil, err
	}
	return it, nil
}

type oscarRowsResponse struct {
	Rows []struct {
		Row map[string]any `json:"row"`
	} `json:"rows"`
}

type oscarIterator struct {
	streamer *OscarStreamer
	ctx      context.Context
	lang     corpus.Language

	offset  int
	pending []string
	done    bool
}

func (it *oscarIterator) Next() (string, error) {
	for {
		for len(it.pending) > 0 {
			text := strings.TrimSpace(it.pending[0])
			it.pending = it.pending[1:]
			if text != "" {
				return text, nil
			}
		}
		if it.done {
			return "", io.EOF
		}
		if err := it.fetchPage(); err != nil {
			return "", err
		}
	}
}

func (it *oscarIterator) Close() error {
	it.pending = nil
	it.done = true
	return nil
}

func (it *oscarIterator) fetchPage() error {
	s := it.streamer
	query := url.Values{}
	query.Set("dataset", s.dataset)
	query.Set("config", string(it.lang))
	query.Set("split", "train")
	query.Set("offset", fmt.Sprint(it.offset))
	query.Set("length", fmt.Sprint(s.pageSize))
	endpoint := s.baseURL + "/rows?" + query.Encode()

	req, err := http.NewRequestWithContext(it.ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrAcquisition, "stream", "oscar_request", "build rows request", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrAcquisition, "stream", "oscar_fetch", "fetch dataset rows", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrAcquisition, "stream", "oscar_fetch",
			fmt.Sprintf("dataset rows request returned status %d", resp.StatusCode), nil)
	}

	var payload oscarRowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return services.Wrap(services.ErrAcquisition, "stream", "oscar_decode", "decode dataset rows", err)
	}

	it.offset += s.pageSize
	if len(payload.Rows) < s.pageSize {
		it.done = true
	}
	for _, row := range payload.Rows {
		text, ok := row.Row["text"].(string)
		if !ok {
			s.logger.Debug("dataset row without text field skipped")
			continue
		}
		it.pending = append(it.pending, text)
	}
	return nil
}
