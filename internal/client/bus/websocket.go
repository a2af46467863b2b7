package bus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/common"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

const (
	ModalStatusDisconnected = "disconnected"
	ModalStatusConnected    = "connected"
)

type WebSocketSettings struct {
	ReconnectInterval time.Duration
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	Header            http.Header
}

func DefaultWebSocketSettings() *WebSocketSettings {
	return &WebSocketSettings{
		ReconnectInterval: 5 * time.Second,
		WriteTimeout:      5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// WebSocket is a Bus over a single websocket connection. Inbound text frames
// are decoded and appended to its Log. A dropped connection is redialled
// every ReconnectInterval until Close.
type WebSocket struct {
	ctx    context.Context
	cancel context.CancelFunc

	url      string
	log      *Log
	settings *WebSocketSettings
	logger   logging.Logger
	dialer   *websocket.Dialer

	// writeMu serializes writers; gorilla allows one concurrent writer.
	writeMu sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

func NewWebSocket(ctx context.Context, url string, log *Log, settings *WebSocketSettings, logger logging.Logger) *WebSocket {
	if settings == nil {
		settings = DefaultWebSocketSettings()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	ws := &WebSocket{
		ctx:      cancelCtx,
		cancel:   cancel,
		url:      url,
		log:      log,
		settings: settings,
		logger:   logger.With("transport", "websocket", "url", url),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: settings.HandshakeTimeout,
		},
		done: make(chan struct{}),
	}
	go ws.run()
	return ws
}

func (w *WebSocket) Log() *Log {
	return w.log
}

// Send writes env as one text frame. It fails with common.ErrNotConnected
// while the connection is down; nothing is queued.
func (w *WebSocket) Send(ctx context.Context, env protocol.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.ctx.Err() != nil {
		return common.ErrClosed
	}

	b, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", env.Action, err)
	}

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return common.ErrNotConnected
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	deadline := time.Now().Add(w.settings.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		// a websocket write deadline cannot be recovered; force a redial
		_ = conn.Close()
		return fmt.Errorf("failed to send %s: %w", env.Action, err)
	}
	w.logger.Debug(ctx, "sent", "action", env.Action)
	return nil
}

// Close stops the reconnect loop and waits for it to exit.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		w.mu.Lock()
		if w.conn != nil {
			_ = w.conn.Close()
		}
		w.mu.Unlock()
	})
	<-w.done
	return nil
}

func (w *WebSocket) run() {
	defer close(w.done)

	dropped := false
	for {
		conn, _, err := w.dialer.DialContext(w.ctx, w.url, w.settings.Header)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.logger.Warn(w.ctx, "dial failed", "error", err)
		} else {
			w.serve(conn, dropped)
			dropped = true
			if w.ctx.Err() != nil {
				return
			}
			w.log.SetMessageModal(&protocol.MessageModal{
				Status:  ModalStatusDisconnected,
				Message: "Connection lost. Reconnecting...",
			})
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.settings.ReconnectInterval):
		}
	}
}

// serve reads frames from conn until it fails or the transport is closed.
func (w *WebSocket) serve(conn *websocket.Conn, restored bool) {
	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		_ = conn.Close()
		return
	}
	w.conn = conn
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
		_ = conn.Close()
		w.log.SetConnected(false)
	}()

	w.logger.Info(w.ctx, "connected")
	w.log.SetConnected(true)
	if restored {
		w.log.SetMessageModal(&protocol.MessageModal{
			Status:  ModalStatusConnected,
			Message: "Connection restored.",
		})
	}

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() == nil {
				w.logger.Warn(w.ctx, "read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		msg, err := protocol.DecodeMessage(frame)
		if err != nil {
			w.logger.Warn(w.ctx, "dropping undecodable frame", "error", err, "size", len(frame))
			continue
		}
		w.log.Append(msg)
	}
}
