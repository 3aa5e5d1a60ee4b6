package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/derfian/httpkom/internal/infra/buildinfo"
	"github.com/derfian/httpkom/internal/infra/tlsroots"
)

// Header names understood by httpkom.
const (
	DefaultConnectionHeader = "Httpkom-Connection"
	HeaderAdminKey          = "X-Admin-Key"
)

// Options configures an HTTPClient.
type Options struct {
	// BaseURL is the gateway address; "http://" is assumed when no scheme
	// is given.
	BaseURL string
	// Token is the session token sent in ConnectionHeader.
	Token            string
	ConnectionHeader string
	AdminKey         string
	// CAFile adds a PEM bundle to the system roots for https.
	CAFile   string
	Insecure bool
	Timeout  time.Duration
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	token    string
	header   string
	adminKey string
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if opts.ConnectionHeader == "" {
		opts.ConnectionHeader = DefaultConnectionHeader
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if strings.HasPrefix(baseURL, "https://") {
		tlsCfg, err := tlsroots.ClientConfig(opts.CAFile, opts.Insecure)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsCfg
	}

	return &HTTPClient{
		baseURL:  baseURL,
		token:    opts.Token,
		header:   opts.ConnectionHeader,
		adminKey: opts.AdminKey,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the session token sent with later requests.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with an optional JSON body.
func (c *HTTPClient) Put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends a request; a non-nil body is encoded as JSON.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent("httpkom-cli"))
	if c.token != "" {
		req.Header.Set(c.header, c.token)
	}
	if c.adminKey != "" {
		req.Header.Set(HeaderAdminKey, c.adminKey)
	}
	return c.client.Do(req)
}

// APIError is an error response from the gateway.
type APIError struct {
	StatusCode  int
	Type        string  `json:"error_type"`
	Code        *int    `json:"error_code"`
	ErrorStatus *string `json:"error_status"`
	Message     string  `json:"error_msg"`
}

func (e *APIError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	case e.Code != nil:
		status := ""
		if e.ErrorStatus != nil {
			status = " " + *e.ErrorStatus
		}
		return fmt.Sprintf("%d %s: lyskom error %d%s (%s)", e.StatusCode, e.Type, *e.Code, status, e.Message)
	default:
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Type, e.Message)
	}
}

// ParseResponse closes resp.Body after decoding it into target. Status
// codes of 400 and above become an *APIError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
