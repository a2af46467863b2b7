package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

func mustMessage(t *testing.T, raw string) protocol.Message {
	t.Helper()
	m, err := protocol.DecodeMessage([]byte(raw))
	require.NoError(t, err)
	return m
}

func TestLog_AppendAndSnapshot(t *testing.T) {
	l := NewLog()
	l.Append(mustMessage(t, `{"action":"ListEntity","result":{"code":"SUCCESS200"}}`))
	l.Append() // no-op

	snap := l.Snapshot()
	assert.False(t, snap.IsConnected)
	assert.Nil(t, snap.MessageModal)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, protocol.ActionListEntity, snap.Messages[0].Action)
	assert.Equal(t, 1, l.Len())
}

func TestLog_SnapshotIsIsolatedFromCallerAppends(t *testing.T) {
	l := NewLog()
	l.Append(mustMessage(t, `{"action":"A"}`))

	snap := l.Snapshot()
	_ = append(snap.Messages, mustMessage(t, `{"action":"mine"}`))
	l.Append(mustMessage(t, `{"action":"B"}`))

	after := l.Snapshot()
	require.Len(t, after.Messages, 2)
	assert.Equal(t, protocol.Action("B"), after.Messages[1].Action)
}

func TestLog_SubscriptionCoalesces(t *testing.T) {
	l := NewLog()
	sub := l.Subscribe()
	assert.Empty(t, sub.Initial().Messages)

	l.Append(mustMessage(t, `{"action":"A"}`))
	l.Append(mustMessage(t, `{"action":"B"}`))
	l.SetConnected(true)

	snap := <-sub.C
	assert.True(t, snap.IsConnected)
	assert.Len(t, snap.Messages, 2)

	select {
	case <-sub.C:
		t.Fatal("expected a single coalesced snapshot")
	default:
	}
}

func TestLog_SetConnectedOnlyPublishesChanges(t *testing.T) {
	l := NewLog()
	sub := l.Subscribe()

	l.SetConnected(false)
	select {
	case <-sub.C:
		t.Fatal("unchanged state must not publish")
	default:
	}

	l.SetConnected(true)
	assert.True(t, (<-sub.C).IsConnected)
}

func TestLog_MessageModalIsCopied(t *testing.T) {
	l := NewLog()
	m := &protocol.MessageModal{Status: "disconnected", Message: "lost"}
	l.SetMessageModal(m)
	m.Message = "changed"

	snap := l.Snapshot()
	require.NotNil(t, snap.MessageModal)
	assert.Equal(t, "lost", snap.MessageModal.Message)

	l.SetMessageModal(nil)
	assert.Nil(t, l.Snapshot().MessageModal)
}

func TestLog_Unsubscribe(t *testing.T) {
	l := NewLog()
	sub := l.Subscribe()

	l.Unsubscribe(sub)
	l.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)

	// publishing with no subscribers is fine
	l.Append(mustMessage(t, `{"action":"A"}`))
}
