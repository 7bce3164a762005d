// Package apiclient is the single way the BFF talks to the remote REST API.
// Every call carries the session's bearer token taken from the context and
// comes back as a Response holding the status, the raw JSON body and, for
// non-2xx answers, the decoded error payload.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type tokenKey struct{}

// WithToken returns a context whose API calls are authorised with token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

type refreshKey struct{}

// Renewal receives the access token minted when a call had to refresh the
// session half way, so the caller can update the cookie.
type Renewal struct {
	Access string
}

// WithRefreshToken makes the refresh token available to calls that retry
// after a 401. The returned Renewal is filled in if that happens.
func WithRefreshToken(ctx context.Context, refresh string) (context.Context, *Renewal) {
	r := &Renewal{}
	return context.WithValue(ctx, refreshKey{}, &refreshState{token: refresh, renewal: r}), r
}

type refreshState struct {
	token   string
	renewal *Renewal
}

// RefreshTokenFrom returns the refresh token and its Renewal, if any.
func RefreshTokenFrom(ctx context.Context) (string, *Renewal) {
	st, _ := ctx.Value(refreshKey{}).(*refreshState)
	if st == nil {
		return "", nil
	}
	return st.token, st.renewal
}

type Response struct {
	Status int
	Data   json.RawMessage
	Err    *APIError
}

// Failed reports whether the backend answered with a non-2xx status.
func (r *Response) Failed() bool { return r.Err != nil }

// Decode unmarshals the success body into v. An empty body leaves v as is.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

func New(base string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// NewWithHTTPClient is used by tests that point the client at httptest.
func NewWithHTTPClient(base string, hc *http.Client, log *zap.Logger) *Client {
	c := New(base, 0, log)
	c.http = hc
	return c
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

func (c *Client) URL(path string) string {
	return c.base + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok := TokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	out := &Response{Status: resp.StatusCode}
	ok := resp.StatusCode/100 == 2
	if !isJSON(resp.Header.Get("Content-Type"), raw) {
		if !ok {
			out.Err = &APIError{Status: resp.StatusCode, Msg: fmt.Sprintf("Server returned status %d", resp.StatusCode)}
		}
		return out, nil
	}

	if ok {
		out.Data = json.RawMessage(raw)
		return out, nil
	}
	out.Err = parseAPIError(resp.StatusCode, raw)
	return out, nil
}

func isJSON(contentType string, raw []byte) bool {
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json")) {
			return true
		}
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)
}
