package store

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"Tutter/internal/core/changes"
)

const (
	subscribeWriteTimeout = 10 * time.Second
	subscribePingInterval = 30 * time.Second
	subscribeReadTimeout  = 60 * time.Second
)

// SubscribeHandler streams change events over a websocket
type SubscribeHandler struct {
	hub      *changes.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewSubscribeHandler creates a new subscribe handler.
// checkOrigin may be nil to accept every origin.
func NewSubscribeHandler(hub *changes.Hub, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *SubscribeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &SubscribeHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleSubscribe upgrades the connection and writes one JSON message per event
// GET /xrpc/social.tutter.store.subscribe?collection=posts
func (h *SubscribeHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Info("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := h.hub.Subscribe(r.URL.Query().Get("collection"))
	defer sub.Close()

	// Reader: handles pongs and notices the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_ = conn.SetReadDeadline(time.Now().Add(subscribeReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(subscribeReadTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(subscribePingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(subscribeWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("failed to write change event", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(subscribeWriteTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
