package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient is a thin wrapper over the daemon HTTP API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

type jobView struct {
	JobID        string `json:"job_id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	Message      string `json:"message"`
	Error        string `json:"error"`
	FileID       string `json:"file_id"`
	UploadStatus string `json:"upload_status"`
	ResultURL    string `json:"result_url"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type healthView struct {
	Status string `json:"status"`
	Checks []struct {
		Name   string `json:"name"`
		Ready  bool   `json:"ready"`
		Detail string `json:"detail"`
	} `json:"checks"`
}

func newAPIClient(addr, token string) *apiClient {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &apiClient{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) submit(params map[string]any) (jobView, error) {
	var created struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := c.do(http.MethodPost, "/api/v1/jobs", params, &created); err != nil {
		return jobView{}, err
	}
	return jobView{JobID: created.JobID, Status: created.Status}, nil
}

func (c *apiClient) job(id string) (jobView, error) {
	var view jobView
	err := c.do(http.MethodGet, "/api/v1/jobs/"+id, nil, &view)
	return view, err
}

func (c *apiClient) jobs() ([]jobView, error) {
	var payload struct {
		Jobs []jobView `json:"jobs"`
	}
	err := c.do(http.MethodGet, "/api/v1/jobs", nil, &payload)
	return payload.Jobs, err
}

func (c *apiClient) health() (healthView, error) {
	var view healthView
	err := c.do(http.MethodGet, "/api/v1/health", nil, &view)
	return view, err
}

func (c *apiClient) result(id string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, c.base+"/api/v1/jobs/"+id+"/result", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("result unavailable (status %d)", resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
