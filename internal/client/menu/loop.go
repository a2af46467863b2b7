package menu

import (
	"context"
	"time"
)

// StartRefreshCheck starts the background staleness check. Calling it
// while the check is running does nothing. The check stops when ctx is
// done or StopRefreshCheck is called.
func (m *Manager) StartRefreshCheck(ctx context.Context) {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.loopDone != nil {
		select {
		case <-m.loopDone:
		default:
			return
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.loopCancel = cancel
	m.loopDone = done

	go m.refreshLoop(loopCtx, done)
}

// StopRefreshCheck stops the background check and waits for it to exit.
func (m *Manager) StopRefreshCheck() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	if m.loopCancel == nil {
		return
	}
	m.loopCancel()
	<-m.loopDone
	m.loopCancel = nil
	m.loopDone = nil
}

func (m *Manager) refreshLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.forceUpdateInterval)
	defer ticker.Stop()

	m.logger.Debug(ctx, "menu refresh check started", "interval", m.forceUpdateInterval)
	for {
		select {
		case <-ctx.Done():
			m.logger.Debug(ctx, "menu refresh check stopped")
			return
		case <-ticker.C:
			m.checkRefresh(ctx)
		}
	}
}

func (m *Manager) checkRefresh(ctx context.Context) {
	if !m.lookup(ctx).NeedsRefresh || m.IsRefreshing() {
		return
	}
	// error already logged
	_ = m.RefreshMenuItems(ctx)
}
