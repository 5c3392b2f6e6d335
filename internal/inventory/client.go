package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIKeyHeader carries the inventory API key.
const APIKeyHeader = "X-API-Key"

// MaxBodyBytes caps how much of an inventory response is buffered.
const MaxBodyBytes = 64 << 20

// Client fetches asset records from a CMDB inventory endpoint.
// It makes exactly one attempt per call.
type Client struct {
	url        string
	apiKey     string
	maxBody    int64
	httpClient *http.Client
}

// Response is a validated inventory payload.
type Response struct {
	StatusCode int
	Records    []map[string]any
}

// NewClient builds a client for url with a request timeout.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Client{
		url:     strings.TrimSpace(url),
		apiKey:  apiKey,
		maxBody: MaxBodyBytes,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(tr),
		},
	}
}

// URL returns the endpoint the client reads from.
func (c *Client) URL() string {
	return c.url
}

// FetchAssets issues a single GET and validates that the body is a non-empty
// JSON array of objects. Failures are returned as *FetchError.
func (c *Client) FetchAssets(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{Kind: ErrRequest, Err: err}
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: transportKind(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{Kind: transportKind(err), StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: ErrStatus, StatusCode: resp.StatusCode, Preview: preview(body)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &FetchError{Kind: ErrMalformedJSON, StatusCode: resp.StatusCode, Preview: preview(body), Err: fmt.Errorf("response body exceeds %d bytes", c.maxBody)}
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Records: records}, nil
}

func decodeRecords(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &FetchError{Kind: ErrMalformedJSON, StatusCode: http.StatusOK, Preview: preview(body), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &FetchError{Kind: ErrMalformedJSON, StatusCode: http.StatusOK, Preview: preview(body), Err: errors.New("trailing data after JSON value")}
	}

	list, ok := v.([]any)
	if !ok {
		return nil, &FetchError{Kind: ErrUnexpectedShape, StatusCode: http.StatusOK, Err: fmt.Errorf("expected a list of assets, got %s", Kind(v))}
	}
	if len(list) == 0 {
		return nil, &FetchError{Kind: ErrUnexpectedShape, StatusCode: http.StatusOK, Err: errors.New("expected a list of assets, got an empty list")}
	}

	records := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &FetchError{Kind: ErrUnexpectedShape, StatusCode: http.StatusOK, Err: fmt.Errorf("element %d is %s, want object", i, Kind(item))}
		}
		records = append(records, m)
	}
	return records, nil
}

// Kind names the JSON type of a decoded value.
func Kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func transportKind(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return ErrConnection
	}
	return ErrRequest
}
