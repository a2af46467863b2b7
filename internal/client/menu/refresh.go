package menu

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

const menuEntityName = "webapp_menu"

// FetchMenuItems publishes the cached menu when it is still valid and
// requests a refresh when it is stale or forceRefresh is set. It also
// starts the background refresh check if it is not running yet.
func (m *Manager) FetchMenuItems(ctx context.Context, forceRefresh bool) error {
	res := m.lookup(ctx)
	m.StartRefreshCheck(ctx)

	if res.found() && !forceRefresh {
		m.update(func() {
			m.items = res.Items
			if res.Timestamp.After(m.lastUpdate) {
				m.lastUpdate = res.Timestamp
			}
		})
		if !res.NeedsRefresh {
			m.logger.Debug(ctx, "menu served from cache", "version", res.Version)
			return nil
		}
		m.logger.Info(ctx, "menu cache is stale, refreshing", "version", res.Version)
	}

	if res.NeedsRefresh || forceRefresh {
		return m.RefreshMenuItems(ctx)
	}
	return nil
}

// RefreshMenuItems requests the menu from the server. At most one refresh
// is in flight: while one is pending, further calls return nil without
// sending. A refresh is also skipped while the unsaved-changes check
// reports true.
func (m *Manager) RefreshMenuItems(ctx context.Context) error {
	if m.IsRefreshing() {
		m.logger.Debug(ctx, "menu refresh already in progress")
		return nil
	}
	if m.unsavedChanges() {
		m.logger.Info(ctx, "unsaved changes detected, deferring menu refresh")
		return nil
	}

	started := false
	m.update(func() {
		if !m.refreshing {
			m.refreshing = true
			started = true
		}
	})
	if !started {
		return nil
	}

	// a new request may legitimately be answered with the same content
	m.processed.Reset()

	env := protocol.NewAction(protocol.ActionGetWebAppMenu, m.user, map[string]any{
		"entityName": menuEntityName,
	})
	if err := m.sender.Send(ctx, env); err != nil {
		m.update(func() { m.refreshing = false })
		m.logger.Error(ctx, "failed to refresh menu items", "error", err)
		return fmt.Errorf("failed to refresh menu items: %w", err)
	}
	m.logger.Info(ctx, "menu refresh requested")
	return nil
}
