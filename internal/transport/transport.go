// Package transport provides the HTTP transport the commerce client dials
// the remote Beyuvana backend with.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// The commerce backend sits behind a CDN whose bot protection scores TLS
// fingerprints. Go's standard TLS client has a distinctive JA3 fingerprint
// and gets aggressively rate limited, which shows up as spurious 429s on
// cart syncs. This transport presents a Chrome-like ClientHello via uTLS,
// lets ALPN negotiate naturally, and frames HTTP/2 with Go's http2
// transport when negotiated.

// NewBrowserTransport creates an http.RoundTripper that presents a Chrome
// TLS fingerprint to the upstream backend. Supports both HTTP/2 and
// HTTP/1.1 based on ALPN negotiation.
func NewBrowserTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: timeout}

	h2Transport := &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
	}

	h1Transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialBrowserTLS(ctx, dialer, network, addr)
		},
		ForceAttemptHTTP2: false,
	}

	return &browserTransport{
		h2: h2Transport,
		h1: h1Transport,
	}
}

// browserTransport wraps HTTP/2 and HTTP/1.1 transports with the Chrome
// TLS fingerprint.
type browserTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

// RoundTrip implements http.RoundTripper.
// Tries HTTP/2 first and falls back to HTTP/1.1 for servers without h2.
// The fallback only runs when the request can be replayed: the failed h2
// attempt may already have consumed part of the original body, and
// resending a truncated cart mutation is worse than surfacing the error.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	retry, ok := replayableRequest(req)
	if !ok {
		return nil, err
	}
	return t.h1.RoundTrip(retry)
}

// replayableRequest clones req with a fresh body for a retry attempt.
// Bodiless requests are replayable as-is; requests built from in-memory
// payloads carry GetBody and get a rewound copy. Anything else is not
// safely retryable.
func replayableRequest(req *http.Request) (*http.Request, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, true
}

// dialBrowserTLS establishes a TLS connection with Chrome's fingerprint.
func dialBrowserTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (net.Conn, error) {
	// Extract hostname for SNI
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	tlsConfig := &utls.Config{
		ServerName: host,
	}
	tlsConn := utls.UClient(conn, tlsConfig, utls.HelloChrome_Auto)

	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
