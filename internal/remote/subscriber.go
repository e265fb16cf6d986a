package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"Tutter/internal/core/changes"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// EventHandler processes one change event
type EventHandler func(ctx context.Context, ev changes.Event) error

// ConnectHook runs after every successful dial, before any event is read
type ConnectHook func(ctx context.Context) error

// Subscriber follows the server's change feed over a websocket and
// reconnects with exponential backoff until its context ends.
type Subscriber struct {
	client     *Client
	handler    EventHandler
	onConnect  ConnectHook
	logger     *slog.Logger
	dialer     *websocket.Dialer
	collection string
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewSubscriber creates a subscriber for collection ("" for all)
func NewSubscriber(client *Client, collection string, handler EventHandler, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		client:     client,
		collection: collection,
		handler:    handler,
		logger:     logger,
		dialer:     websocket.DefaultDialer,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

// OnConnect sets a hook run on each connect and reconnect.
// Events sent while the client was disconnected are not replayed, so the
// hook is where a caller resyncs its state. Hook errors are logged.
func (s *Subscriber) OnConnect(hook ConnectHook) *Subscriber {
	s.onConnect = hook
	return s
}

// Start consumes events until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("starting change subscriber", "server", s.client.BaseURL(), "collection", s.collection)

	backoff := s.minBackoff
	for {
		connected, err := s.connect(ctx)
		if ctx.Err() != nil {
			s.logger.Info("change subscriber shutting down")
			return ctx.Err()
		}
		if connected {
			backoff = s.minBackoff
		}
		s.logger.Warn("change feed connection error, retrying", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

// SubscribeURL returns the websocket URL of the change feed
func (s *Subscriber) SubscribeURL() (string, error) {
	u, err := url.Parse(s.client.BaseURL() + "/xrpc/" + MethodSubscribe)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	if s.collection != "" {
		u.RawQuery = url.Values{"collection": {s.collection}}.Encode()
	}
	return u.String(), nil
}

// connect reads events until the connection fails. connected reports whether
// the dial succeeded, so the caller can reset its backoff.
func (s *Subscriber) connect(ctx context.Context) (connected bool, err error) {
	wsURL, err := s.SubscribeURL()
	if err != nil {
		return false, err
	}

	header := http.Header{}
	if token := s.client.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("failed to connect to change feed (status %d): %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("failed to connect to change feed: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			s.logger.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	s.logger.Info("connected to change feed")

	if s.onConnect != nil {
		if err := s.onConnect(ctx); err != nil {
			s.logger.Warn("change feed connect hook failed", "error", err)
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		s.logger.Warn("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(done) }) }
	defer stop()

	// Close the connection when ctx ends so ReadMessage returns
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
					s.logger.Warn("failed to send ping", "error", err)
					stop()
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read error: %w", err)
		}

		var ev changes.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			s.logger.Warn("failed to parse change event", "error", err)
			continue
		}
		if ev.Collection == "" || strings.TrimSpace(ev.ID) == "" {
			continue
		}

		if err := s.handler(ctx, ev); err != nil {
			s.logger.Warn("failed to handle change event", "seq", ev.Seq, "id", ev.ID, "error", err)
		}
	}
}
