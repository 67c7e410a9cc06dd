package mapservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client executes descriptors against a map service base URL.
type Client struct {
	BaseURL        string
	ProxyURL       string
	AlwaysUseProxy bool
	HTTPClient     *http.Client
	Logger         *log.Entry
}

// NewClient creates a client with a bounded HTTP timeout. The transport is
// a copy of the default one, so environment proxies and pooling apply.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Logger: log.WithField("component", "mapservice"),
	}
}

// Response is a raw service response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// URL returns the absolute URL of a descriptor, prefixed with the proxy
// when AlwaysUseProxy is set.
func (c *Client) URL(d *Descriptor) string {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + d.Query()
	if c.AlwaysUseProxy && c.ProxyURL != "" {
		return c.ProxyURL + u
	}
	return u
}

// Do sends the descriptor as GET or POST and reads the whole body.
func (c *Client) Do(ctx context.Context, d *Descriptor) (*Response, error) {
	url := c.URL(d)

	var body io.Reader
	if d.IsPost() {
		data, err := d.PostData()
		if err != nil {
			return nil, fmt.Errorf("encoding body for %s: %w", d.Name, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method(), url, body)
	if err != nil {
		return nil, err
	}
	if d.IsPost() {
		req.Header.Set("Content-Type", d.PostType)
	}
	if d.Response == ResponseBinary {
		req.Header.Set("Accept", "image/*, application/octet-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	logger := c.logger().WithFields(log.Fields{"method": req.Method, "op": d.Name})
	start := time.Now()

	resp, err := c.httpClient().Do(req)
	if err != nil {
		logger.WithError(err).Warn("request failed")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"status":  resp.StatusCode,
		"bytes":   len(data),
		"elapsed": time.Since(start),
	}).Debug("request done")

	if resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Body: data}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *log.Entry {
	if c.Logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return c.Logger
}
