package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for the kiosk API. The write
// timeout leaves room for the events long-poll.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
