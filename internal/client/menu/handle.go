package menu

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

// HandleMessage applies a GetWebAppMenu result. Any coded result ends the
// pending refresh; only a SUCCESS200 carrying a menu replaces the tree.
// The tree is written through to the cache when it differs from the
// current one, when there is no current tree, or when the last write is
// older than ForceUpdateInterval.
func (m *Manager) HandleMessage(ctx context.Context, msg protocol.Message) {
	if msg.Action != protocol.ActionGetWebAppMenu || !msg.HasCode() {
		return
	}
	if !m.processed.CheckAndAdd(msg.Fingerprint()) {
		m.logger.Debug(ctx, "duplicate menu message skipped")
		return
	}

	if msg.Code != protocol.CodeSuccess200 {
		m.logger.Warn(ctx, "menu refresh failed", "code", msg.Code)
		m.update(func() { m.refreshing = false })
		return
	}

	res, err := msg.Decode()
	if err != nil {
		m.logger.Warn(ctx, "failed to decode menu message", "error", err)
		m.update(func() { m.refreshing = false })
		return
	}
	r := res.(protocol.MenuResult)
	if !r.Present {
		m.logger.Debug(ctx, "menu message without menu ignored")
		m.update(func() { m.refreshing = false })
		return
	}

	items, err := parseMenu(r.Menu)
	if err != nil {
		m.logger.Error(ctx, "failed to parse menu data", "error", err)
	}

	now := m.now()
	changed := false
	m.update(func() {
		changed = len(m.items) == 0 ||
			!sameTree(m.items, items) ||
			now.Sub(m.lastUpdate) > m.forceUpdateInterval
		if changed {
			m.items = items
			m.lastUpdate = now
		}
		m.refreshing = false
		m.lastActivity = now
	})

	if !changed {
		m.logger.Debug(ctx, "menu content unchanged")
		return
	}
	if err := m.save(ctx, items, now); err != nil {
		m.logger.Error(ctx, "failed to write menu cache", "error", err)
		return
	}
	m.logger.Info(ctx, "menu updated", "items", len(items))
}

// sameTree compares the serialized forms of two trees.
func sameTree(a, b []Item) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
