package stream

import (
	"compress/bzip2"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"gleaner/internal/corpus"
	"gleaner/internal/logging"
	"gleaner/internal/services"
)

// WikipediaStreamer reads the latest pages-articles dump for a language
// wiki and yields plain-text sentences. The dump is decompressed and parsed
// on the fly; no intermediate file is written.
type WikipediaStreamer struct {
	client   HTTPDoer
	dumpHost string
	logger   *slog.Logger
}

func NewWikipediaStreamer(client HTTPDoer, dumpHost string, logger *slog.Logger) *WikipediaStreamer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WikipediaStreamer{client: client, dumpHost: dumpHost, logger: logger}
}

// DumpURL returns the canonical location of the latest articles dump for the
// given language wiki.
func (s *WikipediaStreamer) DumpURL(lang corpus.Language) string {
	return fmt.Sprintf("https://%s/%swiki/latest/%swiki-latest-pages-articles.xml.bz2", s.dumpHost, lang, lang)
}

// Stream implements corpus.Streamer.
func (s *WikipediaStreamer) Stream(ctx context.Context, lang corpus.Language) (corpus.Iterator, error) {
	url := s.DumpURL(lang)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrAcquisition, "stream", "wikipedia_request", "build dump request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAcquisition, "stream", "wikipedia_fetch", "fetch dump", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, services.Wrap(services.ErrAcquisition, "stream", "wikipedia_fetch",
			fmt.Sprintf("dump request for %s returned status %d", url, resp.StatusCode), nil)
	}
	s.logger.Info("streaming wikipedia dump", slog.String("url", url))

	return &wikipediaIterator{
		body:    resp.Body,
		decoder: xml.NewDecoder(bzip2.NewReader(resp.Body)),
	}, nil
}

type wikipediaIterator struct {
	body    io.ReadCloser
	decoder *xml.Decoder
	pending []string
	closed  bool
}

func (it *wikipediaIterator) Next() (string, error) {
	for {
		if len(it.pending) > 0 {
			sentence := it.pending[0]
			it.pending = it.pending[1:]
			return sentence, nil
		}
		if it.closed {
			return "", io.EOF
		}
		article, err := it.nextArticle()
		if err == io.EOF {
			it.closed = true
			continue
		}
		if err != nil {
			return "", services.Wrap(services.ErrAcquisition, "stream", "wikipedia_parse", "parse dump", err)
		}
		it.pending = SplitSentences(CleanWikiMarkup(article))
	}
}

// nextArticle advances the decoder to the next <text> element and returns
// its character data.
func (it *wikipediaIterator) nextArticle() (string, error) {
	for {
		token, err := it.decoder.Token()
		if err != nil {
			return "", err
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "text" {
			continue
		}
		var body string
		if err := it.decoder.DecodeElement(&body, &start); err != nil {
			return "", err
		}
		return body, nil
	}
}

func (it *wikipediaIterator) Close() error {
	it.pending = nil
	it.closed = true
	return it.body.Close()
}

var (
	markupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)\{\{[^{}]*\}\}`),     // templates
		regexp.MustCompile(`(?s)\{\|.*?\|\}`),        // tables
		regexp.MustCompile(`(?s)<ref[^>]*?/>`),       // self-closing refs
		regexp.MustCompile(`(?s)<ref[^>]*?>.*?</ref>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),         // comments
		regexp.MustCompile(`\[\[(?:[^\[\]|]*\|)?([^\[\]|]*)\]\]`), // wiki links, keep label
		regexp.MustCompile(`\[https?://\S*\s?([^\]]*)\]`),         // external links
		regexp.MustCompile(`'{2,}`),                  // bold/italic quotes
		regexp.MustCompile(`(?m)^[=\*#:;]+.*$`),      // headings and list markup
		regexp.MustCompile(`<[^>]+>`),                // remaining tags
	}
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// CleanWikiMarkup strips common MediaWiki syntax, leaving readable prose.
// Link patterns keep their display label; everything structural is dropped.
// Entities are decoded only after markup removal so escaped literals like
// &lt;b&gt; survive as text instead of being stripped as tags.
func CleanWikiMarkup(text string) string {
	for _, pattern := range markupPatterns {
		text = pattern.ReplaceAllString(text, "$1")
	}
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// SplitSentences breaks prose on terminal punctuation. Every trimmed
// non-empty segment is emitted, however short; length-based quality
// filtering is not this layer's job.
func SplitSentences(text string) []string {
	parts := sentenceEnd.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
