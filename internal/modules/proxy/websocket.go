package proxy

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// ForwardWebSocket tunnels an upgraded connection to the upstream origin.
// Frames are relayed verbatim in both directions; the proxy never
// interprets their contents. Either side closing or failing tears the
// whole tunnel down, so no upstream connection outlives its client.
func (f *Forwarder) ForwardWebSocket(w http.ResponseWriter, r *http.Request, upstreamPath string) error {
	target := *f.origin
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}
	if !strings.HasPrefix(upstreamPath, "/") {
		upstreamPath = "/" + upstreamPath
	}
	target.Path = strings.TrimSuffix(target.Path, "/") + upstreamPath
	target.RawQuery = r.URL.RawQuery
	targetURL := target.String()

	header := http.Header{}
	origin := f.origin.String()
	header.Set("Origin", origin)
	header.Set("User-Agent", browserUserAgent)
	if cookie := r.Header.Get("Cookie"); cookie != "" {
		header.Set("Cookie", cookie)
	}

	upstream, resp, err := f.dialer.DialContext(r.Context(), targetURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("dial upstream websocket %s: %w", targetURL, err)
	}

	// Upgrade writes its own HTTP error response on failure.
	client, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		upstream.Close()
		log.Printf("websocket upgrade failed: %v", err)
		return nil
	}

	defer client.Close()
	defer upstream.Close()

	// Two directional copy loops joined by one signal: the first error on
	// either side cancels both via the deferred closes.
	errc := make(chan error, 2)
	go relayFrames(upstream, client, errc)
	go relayFrames(client, upstream, errc)

	if err := <-errc; err != nil && !websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived) {
		log.Printf("websocket relay closed for %s: %v", targetURL, err)
	}
	return nil
}

func relayFrames(dst, src *websocket.Conn, errc chan<- error) {
	for {
		msgType, payload, err := src.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		if err := dst.WriteMessage(msgType, payload); err != nil {
			errc <- err
			return
		}
	}
}
