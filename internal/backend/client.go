package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// Client talks to the assistant backend. It has no request timeout: an
// upload waits for the backend to succeed or fail.
type Client struct {
	serverURL string
	apiURL    string
	http      *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. serverURL is the scheme+host the backend serves
// audio from, apiPrefix is prepended to every endpoint path.
func New(serverURL, apiPrefix string, opts ...Option) *Client {
	serverURL = strings.TrimRight(serverURL, "/")
	c := &Client{
		serverURL: serverURL,
		apiURL:    serverURL + apiPrefix,
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveURL makes a root-relative audio path absolute against the server.
func (c *Client) ResolveURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.serverURL + path
}

// Settings fetches the current backend settings.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	err := c.doJSON(ctx, http.MethodGet, "/settings", nil, &s)
	return s, err
}

// UpdateSettings reports the use-context flag.
func (c *Client) UpdateSettings(ctx context.Context, useContext bool) error {
	return c.doJSON(ctx, http.MethodPost, "/settings", settingsUpdate{UseContext: useContext}, nil)
}

// Conversations returns the stored exchanges, oldest first.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var records []Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Stats returns the conversation count and the memory limit.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.doJSON(ctx, http.MethodGet, "/stats", nil, &s)
	return s, err
}

// SetMemorySize updates the context window size and, in custom mode, the key.
func (c *Client) SetMemorySize(ctx context.Context, req MemorySizeRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/memory-size", req, nil)
}

// ValidateKey asks the backend whether apiKey is usable.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) (KeyValidation, error) {
	var v KeyValidation
	err := c.doJSON(ctx, http.MethodPost, "/validate-key", keyRequest{APIKey: apiKey}, &v)
	return v, err
}

// ResetCustomKey discards the server-side temporary key.
func (c *Client) ResetCustomKey(ctx context.Context) (Ack, error) {
	var ack Ack
	err := c.doJSON(ctx, http.MethodPost, "/reset-custom-key", nil, &ack)
	return ack, err
}

// Clear deletes every stored conversation.
func (c *Client) Clear(ctx context.Context) (Ack, error) {
	var ack Ack
	err := c.doJSON(ctx, http.MethodPost, "/clear", nil, &ack)
	return ack, err
}

// Process uploads one recording and returns the produced conversation.
func (c *Client) Process(ctx context.Context, filename, mimeType string, audio io.Reader) (ProcessResult, error) {
	const endpoint = "/process"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// CreateFormFile always uses application/octet-stream; set the real type.
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="audio"; filename="%s"`, filepath.Base(filename)))
	partHeader.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return ProcessResult{}, fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ProcessResult{}, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+endpoint, &buf)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result ProcessResult
	if err := c.do(req, endpoint, &result); err != nil {
		return ProcessResult{}, err
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	slog.Debug("backend request", "method", req.Method, "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(body)
		slog.Debug("backend rejected request",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body_preview", truncate(string(body), 300),
		)
		return &RejectionError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w (body: %s)", endpoint, err, truncate(string(body), 200))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
