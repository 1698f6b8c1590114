package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. writeTimeout should exceed the per-request
// timeout so handlers can still write their error response.
func New(addr string, handler http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
