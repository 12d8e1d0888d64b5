package slotsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client is the HTTP client for the slot/capacity backend.
type Client struct {
	BaseURL string
	// BearerToken is sent as Authorization header when set.
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
	Logger      logrus.FieldLogger
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Response is the decoded backend envelope {data, message?, totalPages?}.
type Response struct {
	Status     int
	Data       json.RawMessage
	Message    string
	TotalPages int
	// Raw holds the full body for endpoints with top-level fields.
	Raw json.RawMessage
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	TotalPages int             `json:"totalPages"`
}

// DecodeData unmarshals the data field into out.
func (r Response) DecodeData(out any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// DecodeRaw unmarshals the whole body into out.
func (r Response) DecodeRaw(out any) error {
	if len(r.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Raw, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Get issues a GET request. query may be nil.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (Response, error) {
	return c.do(ctx, http.MethodGet, withQuery(endpoint, query), nil)
}

// Post issues a POST request with a JSON body (nil for none).
func (c *Client) Post(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) (Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any) (Response, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return Response{}, fmt.Errorf("encode body: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return Response{}, err
	}
	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	log := c.logger().WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       endpoint,
	})
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return Response{}, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	log = log.WithField("status", resp.StatusCode)
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
		var eb struct {
			Message string            `json:"message"`
			Errors  []json.RawMessage `json:"errors"`
		}
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
			apiErr.Errors = detailStrings(eb.Errors)
		}
		log.WithField("message", apiErr.Message).Debug("request rejected")
		return Response{Status: resp.StatusCode, Raw: raw}, apiErr
	}
	log.Debug("request ok")
	out := Response{Status: resp.StatusCode, Raw: raw}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, fmt.Errorf("decode envelope: %w", err)
	}
	out.Data = env.Data
	out.Message = env.Message
	out.TotalPages = env.TotalPages
	return out, nil
}

type requestIDKey struct{}

// WithRequestID pins the X-Request-ID of every request issued with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id set by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

func withQuery(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + query.Encode()
}
