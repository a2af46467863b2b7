package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/common"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastSettings() *WebSocketSettings {
	s := DefaultWebSocketSettings()
	s.ReconnectInterval = 20 * time.Millisecond
	s.WriteTimeout = time.Second
	return s
}

// echoServer answers every action with a SUCCESS200 result for the same
// action.
func echoServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env protocol.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Errorf("server got invalid envelope: %v", err)
				return
			}
			reply, _ := json.Marshal(map[string]any{
				"action": env.Action,
				"result": map[string]any{"code": "SUCCESS200"},
				"params": map[string]any{"entityName": env.Params["entityName"], "user": env.Env.User},
			})
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}))
}

func TestWebSocket_SendAndReceive(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	l := NewLog()
	ws := NewWebSocket(context.Background(), wsURL(srv), l, fastSettings(), nil)
	defer ws.Close()

	require.Eventually(t, func() bool { return l.Snapshot().IsConnected }, 2*time.Second, 10*time.Millisecond)

	env := protocol.NewAction(protocol.ActionListEntity, "u1", map[string]any{"entityName": "users"})
	require.NoError(t, ws.Send(context.Background(), env))

	require.Eventually(t, func() bool { return l.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	msg := l.Snapshot().Messages[0]
	assert.Equal(t, protocol.ActionListEntity, msg.Action)
	assert.Equal(t, protocol.CodeSuccess200, msg.Code)
	assert.Equal(t, "users", msg.EntityName())
	assert.Same(t, l, ws.Log())
}

func TestWebSocket_SendWhileDisconnected(t *testing.T) {
	l := NewLog()
	// nothing listens on this address
	ws := NewWebSocket(context.Background(), "ws://127.0.0.1:1/ws", l, fastSettings(), nil)

	err := ws.Send(context.Background(), protocol.NewAction(protocol.ActionGetWebAppMenu, "u", nil))
	assert.ErrorIs(t, err, common.ErrNotConnected)

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())

	err = ws.Send(context.Background(), protocol.NewAction(protocol.ActionGetWebAppMenu, "u", nil))
	assert.ErrorIs(t, err, common.ErrClosed)
}

func TestWebSocket_SendHonoursCancelledContext(t *testing.T) {
	l := NewLog()
	ws := NewWebSocket(context.Background(), "ws://127.0.0.1:1/ws", l, fastSettings(), nil)
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ws.Send(ctx, protocol.NewAction(protocol.ActionGetWebAppMenu, "u", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWebSocket_ReconnectSetsModal(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if conns.Add(1) == 1 {
			// drop the first connection straight away
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	l := NewLog()
	sub := l.Subscribe()
	defer l.Unsubscribe(sub)

	ws := NewWebSocket(context.Background(), wsURL(srv), l, fastSettings(), nil)
	defer ws.Close()

	var sawLost bool
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-sub.C:
			if snap.MessageModal != nil && snap.MessageModal.Status == ModalStatusDisconnected {
				sawLost = true
			}
			if sawLost && snap.IsConnected && snap.MessageModal != nil && snap.MessageModal.Status == ModalStatusConnected {
				assert.GreaterOrEqual(t, conns.Load(), int32(2))
				return
			}
		case <-deadline:
			t.Fatalf("no reconnect observed, last snapshot %+v", l.Snapshot())
		}
	}
}

func TestWebSocket_DropsUndecodableFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"GetWebAppMenu","result":{"code":"SUCCESS200"}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	l := NewLog()
	ws := NewWebSocket(context.Background(), wsURL(srv), l, fastSettings(), nil)
	defer ws.Close()

	require.Eventually(t, func() bool { return l.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, protocol.ActionGetWebAppMenu, l.Snapshot().Messages[0].Action)
}
