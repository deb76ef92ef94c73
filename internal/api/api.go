// Package api is the HTTP client for the hosting platform's project endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joescharf/mdb/internal/models"
)

// Request headers understood by the platform.
const (
	HeaderProjectName       = "x-mdb-cli-project-name"
	HeaderPackageName       = "x-mdb-cli-package-name"
	HeaderDomainName        = "x-mdb-cli-domain-name"
	HeaderDotMdbHash        = "x-mdb-cli-dot-mdb-hash"
	HeaderBackendTechnology = "x-mdb-cli-backend-technology"
	HeaderWpStarter         = "x-mdb-cli-wp-starter"
)

// Error is a non-2xx response from the platform.
type Error struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ProjectHeaders identify the project on publish and save calls. Empty
// fields are not sent.
type ProjectHeaders struct {
	ProjectName string
	PackageName string
	Domain      string
	Hash        string
	Technology  string // backend projects only
	Starter     string // WordPress projects only
}

func (h ProjectHeaders) apply(req *http.Request) {
	for k, v := range map[string]string{
		HeaderProjectName:       h.ProjectName,
		HeaderPackageName:       h.PackageName,
		HeaderDomainName:        h.Domain,
		HeaderDotMdbHash:        h.Hash,
		HeaderBackendTechnology: h.Technology,
		HeaderWpStarter:         h.Starter,
	} {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
}

// SaveRequest is the body of the pipeline status update.
type SaveRequest struct {
	RepoURL string `json:"repoUrl"`
	Domain  string `json:"domain,omitempty"`
}

// Client talks to the platform API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logf    func(format string, a ...any)
}

// NewClient returns a Client for baseURL. No timeout is set: uploads may be large.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{},
	}
}

// Publish uploads a zip stream to POST /project/publish.
func (c *Client) Publish(ctx context.Context, h ProjectHeaders, body io.Reader) (*models.PublishResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/project/publish", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/zip")
	h.apply(req)
	return c.do(req)
}

// SaveProject reports a pipeline publish to POST /project/save/:projectName.
func (c *Client) SaveProject(ctx context.Context, h ProjectHeaders, body SaveRequest) (*models.PublishResult, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode save request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/project/save/"+url.PathEscape(h.ProjectName), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	h.apply(req)
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*models.PublishResult, error) {
	if c.Logf != nil {
		c.Logf("%s %s", req.Method, req.URL)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, data)
	}

	var result models.PublishResult
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return &result, nil
}

// newError extracts the platform's message from a JSON body, or uses the raw body.
func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Body: strings.TrimSpace(string(body))}
	if gjson.ValidBytes(body) {
		e.Message = gjson.GetBytes(body, "message").String()
	}
	if e.Message == "" && !gjson.ValidBytes(body) {
		e.Message = e.Body
	}
	return e
}
