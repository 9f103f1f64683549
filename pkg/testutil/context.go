package testutil

import (
	"context"
	"net/http"
	"time"

	"kiosk/pkg/requestcontext"
)

// WithRequest stamps ctx the way the request middleware does: a request ID
// and a fixed request time.
func WithRequest(ctx context.Context, requestID string, now time.Time) context.Context {
	ctx = requestcontext.WithRequestID(ctx, requestID)
	return requestcontext.WithTime(ctx, now)
}

// WithRequestID attaches a request ID to req's context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
