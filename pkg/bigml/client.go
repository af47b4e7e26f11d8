package bigml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	net_http "net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bigmler/bigmler/pkg/http"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const DefaultWaitStep = 2 * time.Second

type Client struct {
	conn     Connection
	http     *retryablehttp.Client
	logger   *zap.Logger
	waitStep time.Duration
}

type ClientOption func(*Client)

// WithHTTPClient replaces the process-wide retryable client.
func WithHTTPClient(c *retryablehttp.Client) ClientOption {
	return func(client *Client) {
		client.http = c
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithWaitStep sets the interval between status polls.
func WithWaitStep(d time.Duration) ClientOption {
	return func(client *Client) {
		client.waitStep = d
	}
}

func NewClient(conn Connection, opts ...ClientOption) (*Client, error) {
	if !conn.HasCredentials() {
		return nil, ErrNoCredentials
	}

	c := &Client{
		conn:     conn,
		logger:   zap.NewNop(),
		waitStep: DefaultWaitStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.RetryableClient()
	}

	return c, nil
}

func (c *Client) Connection() Connection {
	return c.conn
}

func (c *Client) WaitStep() time.Duration {
	return c.waitStep
}

// Create creates a resource of type t from a JSON arguments map.
func (c *Client) Create(ctx context.Context, t ResourceType, args map[string]interface{}) (*Resource, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	if _, ok := args["project"]; !ok && c.conn.Project != "" && c.conn.Organization == "" && t != ProjectType {
		args["project"] = c.conn.Project
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", t, err)
	}

	return c.call(ctx, net_http.MethodPost, string(t), "", body, "application/json", net_http.StatusCreated)
}

// CreateSourceFromFile uploads a local file as a new source. Non-string
// arguments are sent JSON encoded.
func (c *Client) CreateSourceFromFile(ctx context.Context, path string, args map[string]interface{}) (*Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value, ok := args[key].(string)
		if !ok {
			encoded, err := json.Marshal(args[key])
			if err != nil {
				return nil, fmt.Errorf("failed to encode source argument %s: %w", key, err)
			}
			value = string(encoded)
		}
		if err := w.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if c.conn.Project != "" && c.conn.Organization == "" {
		if _, ok := args["project"]; !ok {
			if err := w.WriteField("project", c.conn.Project); err != nil {
				return nil, err
			}
		}
	}

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.call(ctx, net_http.MethodPost, string(SourceType), "", buf.Bytes(), w.FormDataContentType(), net_http.StatusCreated)
}

func (c *Client) Get(ctx context.Context, id string, query string) (*Resource, error) {
	id = strings.TrimSpace(id)
	if _, err := ParseResourceID(id); err != nil {
		return nil, err
	}
	return c.call(ctx, net_http.MethodGet, id, query, nil, "", net_http.StatusOK)
}

func (c *Client) Update(ctx context.Context, id string, args map[string]interface{}) (*Resource, error) {
	id = strings.TrimSpace(id)
	if _, err := ParseResourceID(id); err != nil {
		return nil, err
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update arguments for %s: %w", id, err)
	}
	return c.call(ctx, net_http.MethodPut, id, "", body, "application/json", net_http.StatusAccepted, net_http.StatusOK)
}

func (c *Client) Delete(ctx context.Context, id string, query string) error {
	id = strings.TrimSpace(id)
	if _, err := ParseResourceID(id); err != nil {
		return err
	}
	_, err := c.call(ctx, net_http.MethodDelete, id, query, nil, "", net_http.StatusNoContent, net_http.StatusOK)
	return err
}

// Download writes the contents of a batch resource to w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) error {
	id = strings.TrimSpace(id)
	if _, err := ParseResourceID(id); err != nil {
		return err
	}

	resp, err := c.send(ctx, net_http.MethodGet, id+"/download", "", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != net_http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return NewAPIError(net_http.MethodGet, c.publicURL(id+"/download", ""), resp.StatusCode, body)
	}

	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) call(ctx context.Context, method string, path string, query string, body []byte, contentType string, expected ...int) (*Resource, error) {
	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, c.publicURL(path, query), err)
	}

	for _, code := range expected {
		if resp.StatusCode == code {
			return NewResource(resp.StatusCode, resp.Header.Get("Location"), respBody), nil
		}
	}

	return nil, NewAPIError(method, c.publicURL(path, query), resp.StatusCode, respBody)
}

func (c *Client) send(ctx context.Context, method string, path string, query string, body []byte, contentType string) (*net_http.Response, error) {
	var reqBody interface{}
	if body != nil {
		reqBody = body
	}
	req, err := http.NewRequest(ctx, method, c.url(path, query), reqBody, contentType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := http.Do(c.http, req, "application/json")
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, c.publicURL(path, query), err)
	}
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("url", c.publicURL(path, query)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return resp, nil
}

func (c *Client) url(path string, query string) string {
	u := c.conn.BaseURL() + path + "?" + c.conn.AuthQuery()
	if query != "" {
		u += ";" + strings.TrimPrefix(query, ";")
	}
	return u
}

// publicURL is the url without credentials, for logs and errors.
func (c *Client) publicURL(path string, query string) string {
	u := c.conn.BaseURL() + path
	if query != "" {
		u += "?" + strings.TrimPrefix(query, ";")
	}
	return u
}
