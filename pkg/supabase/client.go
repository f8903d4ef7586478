// Package supabase is a small client for a hosted Supabase project: the
// PostgREST table API under /rest/v1 and the GoTrue auth API under /auth/v1.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"network20-backend/pkg/kvstore"

	"github.com/cenkalti/backoff/v4"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
	// Store persists the auth session. A memory store is used when nil.
	Store kvstore.Store
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
	// ReadRetries is how many times a GET is repeated after a transport
	// error or a 502/503/504. Zero disables retries.
	ReadRetries uint64
	// RetryWait is the first pause between retries; later pauses grow.
	RetryWait time.Duration
}

type Client struct {
	baseURL string
	key     string
	http    *http.Client
	retries uint64
	wait    time.Duration

	Auth *Auth
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, errors.New("supabase: url and key are required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("supabase: invalid url %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	store := cfg.Store
	if store == nil {
		store = kvstore.NewMemory()
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		http:    httpClient,
		retries: cfg.ReadRetries,
		wait:    cfg.RetryWait,
	}
	if c.wait <= 0 {
		c.wait = 200 * time.Millisecond
	}
	c.Auth = newAuth(c, store, StorageKey(u.Hostname()))
	return c, nil
}

// StorageKey is the session key supabase-js uses for a project host.
func StorageKey(host string) string {
	ref, _, _ := strings.Cut(host, ".")
	return "sb-" + ref + "-auth-token"
}

// APIError is a non-2xx answer from PostgREST or GoTrue.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, e.Message)
}

func (e *APIError) HTTPStatus() int { return e.Status }

// PublicMessage is the backend's message without the status prefix.
func (e *APIError) PublicMessage() string { return e.Message }

// decodeAPIError reads both PostgREST ({code,message}) and GoTrue
// ({msg}|{error_description}|{error}) error bodies.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var raw struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Details          string `json:"details"`
		Hint             string `json:"hint"`
	}
	_ = json.Unmarshal(body, &raw)

	apiErr := &APIError{Status: resp.StatusCode, Details: raw.Details, Hint: raw.Hint}
	switch code := raw.Code.(type) {
	case string:
		apiErr.Code = code
	default:
		apiErr.Code = raw.ErrorCode
	}
	for _, m := range []string{raw.Message, raw.Msg, raw.ErrorDescription, raw.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	token   string
	headers http.Header
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
// Reads are retried with exponential backoff; writes are sent once.
func (c *Client) do(ctx context.Context, req request, out any) (*http.Response, error) {
	if req.method != http.MethodGet || c.retries == 0 {
		return c.send(ctx, req, out)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.wait
	policy.MaxElapsedTime = 0

	var resp *http.Response
	err := backoff.Retry(func() error {
		var err error
		resp, err = c.send(ctx, req, out)
		if err != nil && !retryable(ctx, resp) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx))
	return resp, err
}

func retryable(ctx context.Context, resp *http.Response) bool {
	if ctx.Err() != nil {
		return false
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) send(ctx context.Context, req request, out any) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("apikey", c.key)
	token := req.token
	if token == "" {
		token = c.key
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp, decodeAPIError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp, fmt.Errorf("supabase: decode response: %w", err)
		}
	}
	return resp, nil
}

// Ping checks that the project answers and accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/health"}, nil)
	return err
}
