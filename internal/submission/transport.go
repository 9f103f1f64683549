package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

//go:generate mockgen -source=transport.go -destination=mocks/submission-mocks.go -package=mocks Transport

// Header names sent with every submission.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderKioskID   = "X-Kiosk-ID"
)

const maxResponseBody = 64 << 10

// Request is one outbound submission.
type Request struct {
	RequestID string
	KioskID   string
	IssuedAt  time.Time
	Payload   Payload
}

// Response is what came back. Send returns an error only when no response
// was received.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport delivers a submission to the enrollment service.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// HTTPTransport posts the payload as JSON.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	signer   *TokenSigner
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithTokenSigner adds a bearer token to every request.
func WithTokenSigner(s *TokenSigner) TransportOption {
	return func(t *HTTPTransport) {
		t.signer = s
	}
}

func NewHTTPTransport(endpoint string, timeout time.Duration, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, req.RequestID)
	if req.KioskID != "" {
		httpReq.Header.Set(HeaderKioskID, req.KioskID)
	}
	if t.signer != nil {
		token, err := t.signer.Sign(req.KioskID, req.RequestID, req.IssuedAt)
		if err != nil {
			return Response{}, fmt.Errorf("sign request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("post %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, nil
	}
	return Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
