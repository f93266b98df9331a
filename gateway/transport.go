package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/globalpay-sdk/gpapi"
)

// Default headers sent on every request.
const (
	headerVersion  = "X-GP-Version"
	versionGPAPI   = "2020-04-10"
	contentTypeReq = "application/json; charset=UTF-8"
)

// gatewayResponse is the raw outcome of one HTTP exchange before any
// domain mapping.
type gatewayResponse struct {
	StatusCode  int
	RawResponse []byte
}

// restClient performs the HTTP exchanges for a connector. One instance is
// shared by every call on a configuration, so the underlying transport's
// connection pool is shared too.
type restClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func newRestClient(cfg *Config) *restClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}
	return &restClient{
		baseURL: cfg.serviceURL(),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: cfg.logger(),
	}
}

// send performs one HTTP exchange. Query parameters are emitted in sorted
// key order; unset entries must simply not be present in query. Headers in
// extra override the defaults for this call only. GET and DELETE requests
// never carry a body even if one is supplied.
func (c *restClient) send(ctx context.Context, verb, path string, body []byte, query url.Values, extra map[string]string) (*gatewayResponse, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	hasBody := len(body) > 0 && verb != http.MethodGet && verb != http.MethodDelete
	if hasBody {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, verb, endpoint, reader)
	if err != nil {
		return nil, gpapi.WrapGatewayError("failed to build request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set(headerVersion, versionGPAPI)
	if hasBody {
		// Content-Length is derived from the bytes.Reader by net/http.
		req.Header.Set("Content-Type", contentTypeReq)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	c.logger.Debug("sending gateway request",
		zap.String("method", verb),
		zap.String("endpoint", endpoint),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	requestDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(verb, "error").Inc()
		return nil, gpapi.WrapGatewayError("request failed", err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(verb, strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := readBody(resp)
	if err != nil {
		return nil, gpapi.WrapGatewayError("failed to read response", err)
	}

	c.logger.Debug("received gateway response",
		zap.String("method", verb),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &gatewayResponse{StatusCode: resp.StatusCode, RawResponse: raw}, nil
}

// readBody drains the response, decompressing when the service honored the
// gzip accept header. Setting Accept-Encoding explicitly disables the
// transport's automatic decompression, so it has to happen here.
func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return raw, nil
}
