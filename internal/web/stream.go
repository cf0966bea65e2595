package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	// The API is served on a local interface only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler upgrades to a websocket and writes one JSON SampleEvent per
// sample until the client goes away.
func StreamHandler(samples *SampleBroadcaster) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if samples == nil {
			http.Error(w, "stream unavailable", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: stream upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		id, ch := samples.Subscribe(8)
		defer samples.Unsubscribe(id)

		// Drain client frames so close and ping control messages are handled.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	})
}
