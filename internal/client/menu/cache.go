package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CacheKey is the storage key of the persisted menu.
const CacheKey = "webapp_menu_items"

// CacheEntry is the persisted menu. Timestamp and Version are epoch
// milliseconds.
type CacheEntry struct {
	Items     []Item `json:"items"`
	Timestamp int64  `json:"timestamp"`
	Version   int64  `json:"version"`
}

type lookupResult struct {
	Items        []Item
	NeedsRefresh bool
	Version      int64
	Timestamp    time.Time
}

// found reports whether the cache produced a tree to serve.
func (r lookupResult) found() bool {
	return r.Items != nil
}

// lookup reads the cache and applies the freshness policy. Read and decode
// failures count as an absent cache.
func (m *Manager) lookup(ctx context.Context) lookupResult {
	absent := lookupResult{NeedsRefresh: true}

	b, err := m.repo.Get(ctx, CacheKey)
	if err != nil {
		m.logger.Error(ctx, "failed to read menu cache", "error", err)
		return absent
	}
	if b == nil {
		return absent
	}

	var entry CacheEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		m.logger.Error(ctx, "failed to decode menu cache", "error", err)
		return absent
	}

	m.mu.Lock()
	lastActivity := m.lastActivity
	m.mu.Unlock()

	now := m.now()
	ts := time.UnixMilli(entry.Timestamp)
	age := now.Sub(ts)
	inactivity := now.Sub(lastActivity)

	if inactivity > m.cacheDuration || age > m.cacheDuration {
		m.logger.Debug(ctx, "menu cache expired", "age", age, "inactivity", inactivity)
		return absent
	}

	return lookupResult{
		Items:        entry.Items,
		NeedsRefresh: age > m.refreshThreshold,
		Version:      entry.Version,
		Timestamp:    ts,
	}
}

func (m *Manager) save(ctx context.Context, items []Item, at time.Time) error {
	b, err := json.Marshal(CacheEntry{
		Items:     items,
		Timestamp: at.UnixMilli(),
		Version:   at.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode menu cache: %w", err)
	}
	if err := m.repo.Set(ctx, CacheKey, b); err != nil {
		return fmt.Errorf("failed to save menu cache: %w", err)
	}
	return nil
}
