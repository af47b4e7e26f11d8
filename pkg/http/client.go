package http

import (
	"context"
	"fmt"
	"io"
	"log"
	net_http "net/http"
	"runtime"
	"time"

	"github.com/bigmler/bigmler/pkg/version"
	"github.com/hashicorp/go-retryablehttp"
)

var _userAgent string
var client *retryablehttp.Client

// RetryableClient returns the process-wide client used for API calls.
// Transport failures and 429 answers are retried with backoff, 5xx answers
// only for methods other than POST.
func RetryableClient() *retryablehttp.Client {
	if client == nil {
		client = NewRetryableClient(4, 30*time.Second)
	}
	return client
}

func NewRetryableClient(retryMax int, retryWaitMax time.Duration) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.RetryMax = retryMax
	c.RetryWaitMax = retryWaitMax
	c.CheckRetry = CheckRetry
	return c
}

// CheckRetry is retryablehttp.DefaultRetryPolicy except for POST answers
// with a 5xx status: the server may have created the resource already.
func CheckRetry(ctx context.Context, resp *net_http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.Request != nil &&
		resp.Request.Method == net_http.MethodPost && resp.StatusCode != net_http.StatusTooManyRequests {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func NewRequest(ctx context.Context, method string, url string, body interface{}, contentType string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Do sends req through c, or through RetryableClient when c is nil.
func Do(c *retryablehttp.Client, req *retryablehttp.Request, accept string) (*net_http.Response, error) {
	req.Header.Set("User-Agent", userAgent())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	if c == nil {
		c = RetryableClient()
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func userAgent() string {
	if _userAgent == "" {
		_userAgent = fmt.Sprintf("BigMLer/%s %s/%s (%s)", version.Version(), version.Component(), version.Version(), runtime.GOOS)
	}
	return _userAgent
}
