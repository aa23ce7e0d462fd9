package databank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gleaner/internal/services"
)

// HTTPDoer describes the HTTP client used by the data bank service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client uploads finished result files to the data bank.
type Client interface {
	// Configured reports whether upload credentials are present.
	Configured() bool
	// Upload sends the file at path and returns the remote file id.
	Upload(ctx context.Context, jobID, path string) (string, error)
}

// Upload failure codes recorded verbatim in the job record.
const (
	CodeConfigMissing   = "config_missing"
	CodeNonDictResponse = "non_dict_response"
	CodeMissingFileID   = "missing_file_id"
)

// StatusCode formats the failure code for a non-2xx upload response.
func StatusCode(status int) string {
	return fmt.Sprintf("status_%d", status)
}

// UploadError carries the machine-readable failure code alongside the
// human-readable message.
type UploadError struct {
	Code    string
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed (%s): %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("upload failed (%s): %s", e.Code, e.Message)
}

func (e *UploadError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return services.ErrUpload
}

// Is lets errors.Is treat every UploadError as an upload failure.
func (e *UploadError) Is(target error) bool {
	return target == services.ErrUpload
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// New builds a data bank client. Empty baseURL or apiKey yields an
// unconfigured client whose Upload fails with CodeConfigMissing.
func New(baseURL, apiKey string, timeout time.Duration, client HTTPDoer) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (c *HTTPClient) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Upload posts the file as multipart form data to {base}/files. The request
// carries the job id so the receiving side can correlate uploads.
func (c *HTTPClient) Upload(ctx context.Context, jobID, path string) (string, error) {
	if !c.Configured() {
		return "", &UploadError{Code: CodeConfigMissing, Message: "data bank url or api key not configured"}
	}

	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrUpload, "databank", "open_result", "result file unavailable", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "build multipart body", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "read result file", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "finalize multipart body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "build upload request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Request-ID", jobID)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "send upload request", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Code: StatusCode(resp.StatusCode), Message: fmt.Sprintf("data bank returned status %d", resp.StatusCode)}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &UploadError{Code: CodeNonDictResponse, Message: "response was not a JSON object", Err: err}
	}
	fileID, ok := payload["file_id"].(string)
	if !ok || fileID == "" {
		return "", &UploadError{Code: CodeMissingFileID, Message: "response missing file_id"}
	}
	return fileID, nil
}
