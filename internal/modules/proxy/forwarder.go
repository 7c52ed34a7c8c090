package proxy

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxRedirects = 5

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Response headers removed so the relayed site can be embedded and scripted
// from any origin.
var strippedResponseHeaders = []string{
	"X-Frame-Options",
	"Content-Security-Policy",
	"Content-Security-Policy-Report-Only",
	"X-Content-Type-Options",
	"Strict-Transport-Security",
}

// Hop-by-hop headers must not be relayed (RFC 7230 §6.1).
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder relays HTTP exchanges and WebSocket streams to one fixed
// upstream origin, impersonating a desktop browser. The http.Client is
// shared; each request gets its own connection/stream.
type Forwarder struct {
	origin *url.URL
	client *http.Client
	dialer *websocket.Dialer

	upgrader websocket.Upgrader
}

func NewForwarder(origin string) (*Forwarder, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse upstream origin %q: %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream origin %q must be http(s)", origin)
	}

	return &Forwarder{
		origin: u,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}, nil
}

func (f *Forwarder) Origin() string { return f.origin.String() }

// Forward relays one HTTP exchange. It returns an error only while nothing
// has been written to the client yet (upstream unreachable, redirect loop);
// the caller turns that into a 502. A failure mid-stream aborts the client
// connection, so a truncated body never reads as a complete response.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, upstreamPath string) error {
	target := f.targetURL(upstreamPath, r.URL.RawQuery)

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		return fmt.Errorf("build upstream request: %w", err)
	}
	out.Header = f.outgoingHeaders(r.Header)

	resp, err := f.client.Do(out)
	if err != nil {
		return fmt.Errorf("upstream %s %s: %w", r.Method, target, err)
	}
	defer resp.Body.Close()

	h := w.Header()
	copyResponseHeaders(h, resp.Header)
	writeCORSHeaders(h)
	coerceContentType(h, upstreamPath)

	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("proxy stream error for %s: %v", target, err)
		// Status already sent. Abort the connection rather than return:
		// a clean return would write the terminating chunk and the client
		// would take the truncated body for the whole response.
		panic(http.ErrAbortHandler)
	}
	return nil
}

// Preflight answers an OPTIONS request locally with permissive CORS
// headers; upstream is never contacted.
func (f *Forwarder) Preflight(w http.ResponseWriter) {
	h := w.Header()
	writeCORSHeaders(h)
	h.Set("Access-Control-Max-Age", "600")
	w.WriteHeader(http.StatusNoContent)
}

func (f *Forwarder) targetURL(upstreamPath, rawQuery string) string {
	target := *f.origin
	if !strings.HasPrefix(upstreamPath, "/") {
		upstreamPath = "/" + upstreamPath
	}
	target.Path = strings.TrimSuffix(target.Path, "/") + upstreamPath
	target.RawQuery = rawQuery
	return target.String()
}

// outgoingHeaders copies the incoming headers and overrides the identity
// set: Origin/Referer point at the upstream, the User-Agent is a fixed
// desktop browser, and the ar-* spoof headers are always injected. Host is
// dropped so the HTTP client derives it from the target URL.
func (f *Forwarder) outgoingHeaders(in http.Header) http.Header {
	out := in.Clone()
	for _, k := range hopHeaders {
		out.Del(k)
	}
	out.Del("Host")

	origin := f.origin.String()
	out.Set("Origin", origin)
	out.Set("Referer", origin+"/")
	out.Set("User-Agent", browserUserAgent)
	out.Set("ar-origin", origin)
	out.Set("ar-real-ip", "127.0.0.1")
	out.Set("Accept", "*/*")
	out.Set("Accept-Language", "en-US,en;q=0.9")
	out.Set("Cache-Control", "no-cache")
	out.Set("Pragma", "no-cache")

	return out
}

func copyResponseHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, k := range hopHeaders {
		dst.Del(k)
	}
	for _, k := range strippedResponseHeaders {
		dst.Del(k)
	}
	// io.Copy re-chunks the body; upstream lengths no longer apply.
	dst.Del("Content-Length")
}

func writeCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "*")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Expose-Headers", "*")
}

// coerceContentType forces the canonical MIME type for asset paths,
// guarding against upstream misconfiguration.
func coerceContentType(h http.Header, path string) {
	if !strings.Contains(path, "/assets/") {
		return
	}
	switch {
	case strings.HasSuffix(path, ".js"):
		h.Set("Content-Type", "application/javascript; charset=utf-8")
	case strings.HasSuffix(path, ".css"):
		h.Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(path, ".json"):
		h.Set("Content-Type", "application/json; charset=utf-8")
	}
}
