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

	"go.uber.org/zap"

	"github.com/netplus/netplus-client-go/pkg/errors"
)

// TokenSource yields the current bearer token, "" when unauthenticated.
// The credential store satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is the single request pipeline between the client and the NetPlus
// API. It resolves paths against the configured base URL, injects the
// bearer token, and converts every non-2xx response into *errors.APIError.
// Transport faults pass through with their original type; no timeout is
// imposed beyond the transport's own defaults.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     logger,
	}
}

type RequestOptions struct {
	Method  string // defaults to GET
	Query   url.Values
	Body    any               // JSON-encoded when non-nil
	Headers map[string]string // caller headers win over injected ones
}

// Do executes one API call. On a 2xx response the body is decoded into out
// when out is non-nil; an empty or undecodable success body leaves out
// untouched rather than failing, so callers detect contract violations
// through missing data. On any other status it returns *errors.APIError.
func (c *Client) Do(ctx context.Context, path string, opts *RequestOptions, out any) error {
	if opts == nil {
		opts = &RequestOptions{}
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	hasBody := opts.Body != nil
	if hasBody {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, opts.Query), bodyReader)
	if err != nil {
		return err
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if hasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Authorization") == "" && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.logger.Warn("credential store read failed, sending unauthenticated",
				zap.String("path", path), zap.Error(err))
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport fault: no response arrived. Propagated untouched so
		// callers can distinguish it from APIError by type.
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, text)
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out != nil && len(text) > 0 {
		if err := json.Unmarshal(text, out); err != nil {
			c.logger.Warn("undecodable success body ignored",
				zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

// buildURL joins the base URL and path with exactly one slash regardless of
// whether the path carries a leading one.
func (c *Client) buildURL(path string, query url.Values) string {
	endpoint := c.baseURL
	if strings.HasPrefix(path, "/") {
		endpoint += path
	} else {
		endpoint += "/" + path
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// decodeAPIError builds the structured error from a failure envelope
// {message?, code?, details?}. Message is used verbatim only when the
// payload carries a non-empty string; code and details are copied through
// when present.
func decodeAPIError(status int, body []byte) *errors.APIError {
	apiErr := errors.NewAPIError(fmt.Sprintf("request failed with status %d", status), status)

	var payload map[string]any
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}
	if message, ok := payload["message"].(string); ok && message != "" {
		apiErr.Message = message
	}
	if code, ok := payload["code"].(string); ok {
		apiErr.Code = code
	}
	if details, ok := payload["details"]; ok {
		apiErr.Details = details
	}
	return apiErr
}
