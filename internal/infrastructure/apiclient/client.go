// Package apiclient is the HTTP layer of the marketplace client. It builds
// request URLs and headers, performs the exchange, and normalizes every
// failure into a *domain.APIError.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/influencehub/marketplace/internal/core/domain"
	"github.com/influencehub/marketplace/internal/pkg/config"
	"github.com/influencehub/marketplace/internal/pkg/metrics"
)

// maxErrorBody caps how much of a failed response is read into the error payload.
const maxErrorBody = 1 << 20

// Client talks to the marketplace API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	version    string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu    sync.RWMutex
	token string
}

// Response is the result of a successful exchange. JSON is set when the
// server answered with a JSON content type; otherwise Raw holds the untouched
// response and the caller must close Raw.Body.
type Response struct {
	StatusCode int
	Header     http.Header
	JSON       json.RawMessage
	Raw        *http.Response
}

// Decode unmarshals a JSON response into v.
func (r *Response) Decode(v any) error {
	if r.Raw != nil {
		return fmt.Errorf("response is %q, not JSON", r.Raw.Header.Get(headerContentType))
	}
	if len(r.JSON) == 0 {
		return errors.New("response has an empty body")
	}
	return json.Unmarshal(r.JSON, v)
}

// NewClient creates a Client. Without options it targets config.DefaultBaseURL.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: config.DefaultBaseURL,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// SetToken attaches the bearer token sent with subsequent requests. An empty
// token detaches it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently attached bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Execute performs req. Every failure is returned as *domain.APIError: HTTP
// failures carry the response status and parsed body, transport failures carry
// domain.StatusNetworkFailure and the cause.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.Body != nil && req.Form != nil {
		return nil, &domain.APIError{
			Message: "invalid request: " + domain.ErrAmbiguousBody.Error(),
			Status:  domain.StatusNetworkFailure,
			Err:     domain.ErrAmbiguousBody,
		}
	}

	// cancel stays pending while a raw response body is handed to the caller.
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
		}
	}
	handedOff := false
	defer func() {
		if !handedOff {
			cancel()
		}
	}()

	method := req.method()
	url := c.URL(req.Endpoint)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(method, err)
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, method, url, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		httpReq.Header.Set(headerRequestID, requestID)
	}
	log := c.log.With().Str("method", method).Str("url", url).Str("request_id", requestID).Logger()

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Debug().Err(err).Msg("api request failed before a response was received")
		return nil, c.transportError(method, err)
	}
	metrics.ClientRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	metrics.ClientRequestsTotal.WithLabelValues(method, metrics.StatusClass(httpResp.StatusCode)).Inc()

	log.Debug().
		Int("status", httpResp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api exchange")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, httpError(httpResp)
	}

	if !isJSON(httpResp.Header.Get(headerContentType)) {
		handedOff = true
		httpResp.Body = &cancelOnClose{ReadCloser: httpResp.Body, cancel: cancel}
		return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Raw: httpResp}, nil
	}

	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(method, fmt.Errorf("failed to read response body: %w", err))
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header}
	if len(strings.TrimSpace(string(body))) > 0 {
		if !json.Valid(body) {
			return nil, c.transportError(method, errors.New("malformed JSON response"))
		}
		resp.JSON = body
	}
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, method, url string, req Request) (*http.Request, error) {
	var (
		bodyReader  io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		buf, ct, err := req.Form.encode()
		if err != nil {
			return nil, &domain.APIError{Message: "invalid request: " + err.Error(), Status: domain.StatusNetworkFailure, Err: err}
		}
		bodyReader, contentType = buf, ct
	case req.Body != nil:
		r, err := encodeJSON(req.Body)
		if err != nil {
			return nil, &domain.APIError{Message: "invalid request: " + err.Error(), Status: domain.StatusNetworkFailure, Err: err}
		}
		bodyReader = r
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &domain.APIError{Message: "invalid request: " + err.Error(), Status: domain.StatusNetworkFailure, Err: err}
	}

	httpReq.Header = BuildHeaders(c.Token(), req.Form != nil)
	httpReq.Header.Set(headerAccept, mimeJSON)
	if contentType != "" {
		httpReq.Header.Set(headerContentType, contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (c *Client) transportError(method string, err error) *domain.APIError {
	metrics.ClientRequestsTotal.WithLabelValues(method, metrics.StatusClass(domain.StatusNetworkFailure)).Inc()
	return &domain.APIError{
		Message: "network error: " + err.Error(),
		Status:  domain.StatusNetworkFailure,
		Err:     err,
	}
}

// cancelOnClose releases the request context once the caller is done with a raw body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// httpError builds the APIError for a non-2xx response.
func httpError(resp *http.Response) *domain.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload any
	if !isJSON(resp.Header.Get(headerContentType)) || json.Unmarshal(body, &payload) != nil || payload == nil {
		payload = map[string]any{"message": strings.TrimSpace(string(body))}
	}

	return &domain.APIError{
		Message: errorMessage(payload, resp.StatusCode),
		Status:  resp.StatusCode,
		Payload: payload,
	}
}

func errorMessage(payload any, status int) string {
	if m, ok := payload.(map[string]any); ok {
		for _, key := range []string{"message", "error"} {
			if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("HTTP error, status %d", status)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == mimeJSON || strings.HasSuffix(mt, "+json")
}
