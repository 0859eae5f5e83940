package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for calls to payment gateways and notification APIs.
type Client struct {
	r *resty.Client
}

// Response is the subset of an HTTP response callers inspect.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a client with a 30s timeout and no retries. Gateway calls that
// create state must not be replayed; opt in with WithRetries for idempotent reads.
func New() *Client {
	r := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithRetries retries transport errors and 5xx responses.
func (c *Client) WithRetries(count int, wait, maxWait time.Duration) *Client {
	c.r.SetRetryCount(count).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || (resp != nil && resp.StatusCode() >= 500)
		})
	return c
}

// WithBaseURL sets the prefix for relative request paths.
func (c *Client) WithBaseURL(base string) *Client {
	c.r.SetBaseURL(base)
	return c
}

// WithHeader sets a custom header.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// Get sends a GET request with query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return wrap(resp), nil
}

// PostJSON sends a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}) (*Response, error) {
	req := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return wrap(resp), nil
}

// PostForm sends a POST request with form data.
func (c *Client) PostForm(ctx context.Context, path string, data map[string]string) (*Response, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetFormData(data).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return wrap(resp), nil
}

func wrap(resp *resty.Response) *Response {
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
}
