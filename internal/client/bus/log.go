// Package bus connects the stores to the backend message channel.
//
// Inbound frames are appended to a Log that is never truncated. Every
// consumer reads the Log through its own Dispatcher, which remembers how
// far it has read and hands each new message to the consumer in order.
// Outbound envelopes go through the Bus interface, implemented for real
// connections by WebSocket.
package bus

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

// Bus sends action envelopes to the backend. Sends are fire-and-forget:
// results arrive later as messages on the Log.
type Bus interface {
	Send(ctx context.Context, env protocol.Envelope) error
}

// Snapshot is the observable state of the channel at one point in time.
type Snapshot struct {
	IsConnected  bool
	Messages     []protocol.Message
	MessageModal *protocol.MessageModal
}

// Log is the append-only inbound message log.
type Log struct {
	mu        sync.Mutex
	connected bool
	messages  []protocol.Message
	modal     *protocol.MessageModal
	subs      map[*Subscription]struct{}
}

func NewLog() *Log {
	return &Log{subs: make(map[*Subscription]struct{})}
}

// Subscription delivers the latest Snapshot after every change. Deliveries
// coalesce: a slow reader only ever sees the newest snapshot, which always
// contains every message appended so far.
type Subscription struct {
	C <-chan Snapshot

	ch      chan Snapshot
	initial Snapshot
}

// Initial is the snapshot taken when the subscription was created.
func (s *Subscription) Initial() Snapshot {
	return s.initial
}

func (l *Log) Append(msgs ...protocol.Message) {
	if len(msgs) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msgs...)
	l.publish()
}

func (l *Log) SetConnected(connected bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected == connected {
		return
	}
	l.connected = connected
	l.publish()
}

// SetMessageModal replaces the status banner; nil clears it.
func (l *Log) SetMessageModal(m *protocol.MessageModal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m != nil {
		cp := *m
		m = &cp
	}
	l.modal = m
	l.publish()
}

func (l *Log) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func (l *Log) Subscribe() *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan Snapshot, 1)
	sub := &Subscription{C: ch, ch: ch, initial: l.snapshot()}
	l.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe stops deliveries and closes sub.C. It is safe to call more
// than once.
func (l *Log) Unsubscribe(sub *Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[sub]; !ok {
		return
	}
	delete(l.subs, sub)
	close(sub.ch)
}

func (l *Log) snapshot() Snapshot {
	s := Snapshot{
		IsConnected: l.connected,
		// consumers may append to their copy without touching ours
		Messages: l.messages[:len(l.messages):len(l.messages)],
	}
	if l.modal != nil {
		m := *l.modal
		s.MessageModal = &m
	}
	return s
}

// publish must be called with l.mu held. Only publish writes to the
// subscription channels, so after draining a full channel the send cannot
// block.
func (l *Log) publish() {
	if len(l.subs) == 0 {
		return
	}
	snap := l.snapshot()
	for sub := range l.subs {
		select {
		case sub.ch <- snap:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snap
		}
	}
}
