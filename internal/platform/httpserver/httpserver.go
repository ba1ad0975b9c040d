package httpserver

import (
	"net/http"
	"time"
)

// New builds the pipeline's HTTP server. Stage executions run a full check
// set inline, so the write path stays untimed and only header reads and idle
// connections are bounded.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
