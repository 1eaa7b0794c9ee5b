package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// Hub streams events to connected websocket clients
type Hub struct {
	clients  map[*websocket.Conn]bool
	lock     sync.Mutex
	log      zerolog.Logger
	allowed  map[string]bool
	upgrader websocket.Upgrader
}

// NewHub creates an empty hub. Browsers may connect from the server's own
// host or from one of allowedOrigins, given as "https://host[:port]".
func NewHub(log zerolog.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		log:     log.With().Str("component", "telemetry_hub").Logger(),
		allowed: make(map[string]bool, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			h.allowed[strings.ToLower(origin)] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts clients that send no Origin, which are not browsers
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return h.allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
}

// ServeHTTP upgrades the request and registers the client. Cross-origin
// requests are rejected with 403 by the upgrader.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.lock.Lock()
	h.clients[conn] = true
	h.lock.Unlock()

	// the feed is one-way; reading only detects the client going away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// Record broadcasts the event as JSON to every client
func (h *Hub) Record(_ context.Context, e Event) error {
	msg, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
			client.Close()
			delete(h.clients, client)
		}
	}
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}
