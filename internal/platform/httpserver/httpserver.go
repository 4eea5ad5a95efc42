// Package httpserver constructs the process's http.Server. Timeouts are set
// here once so every deployment gets the same slow-client protection.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for the auth API. Requests are small JSON bodies, so
// tight read deadlines are safe; writes allow for token minting and ledger
// round-trips.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
