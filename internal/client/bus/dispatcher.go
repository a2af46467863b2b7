package bus

import (
	"context"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

// Consumer is the receiving side of a Dispatcher. Both methods are called
// from the dispatcher goroutine only, so a consumer sees its messages one
// at a time and in log order.
type Consumer interface {
	HandleMessage(ctx context.Context, msg protocol.Message)
	HandleStatus(ctx context.Context, connected bool, modal *protocol.MessageModal)
}

// Dispatcher feeds one consumer every message appended to a Log after
// NewDispatcher returned.
type Dispatcher struct {
	log      *Log
	sub      *Subscription
	consumer Consumer
	logger   logging.Logger

	cursor    int
	connected bool
	modal     *protocol.MessageModal
	started   bool
}

func NewDispatcher(log *Log, consumer Consumer, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	sub := log.Subscribe()
	return &Dispatcher{
		log:      log,
		sub:      sub,
		consumer: consumer,
		logger:   logger,
		cursor:   len(sub.Initial().Messages),
	}
}

// Run blocks until ctx is cancelled, then unsubscribes.
func (d *Dispatcher) Run(ctx context.Context) {
	sub := d.sub
	defer d.log.Unsubscribe(sub)

	d.Dispatch(ctx, d.log.Snapshot())

	d.logger.Debug(ctx, "dispatcher started", "cursor", d.cursor)
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug(ctx, "dispatcher stopped", "cursor", d.cursor)
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			d.Dispatch(ctx, snap)
		}
	}
}

// Dispatch mirrors the connection state of snap to the consumer and hands
// it every message past the cursor.
func (d *Dispatcher) Dispatch(ctx context.Context, snap Snapshot) {
	if !d.started || snap.IsConnected != d.connected || !sameModal(snap.MessageModal, d.modal) {
		d.started = true
		d.connected = snap.IsConnected
		d.modal = snap.MessageModal
		d.consumer.HandleStatus(ctx, snap.IsConnected, snap.MessageModal)
	}

	for d.cursor < len(snap.Messages) {
		msg := snap.Messages[d.cursor]
		d.cursor++
		d.consumer.HandleMessage(ctx, msg)
	}
}

func sameModal(a, b *protocol.MessageModal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
