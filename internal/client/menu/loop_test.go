package menu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRefresh(t *testing.T) {
	m, sender, repo, clock := newTestManager(t)
	ctx := context.Background()

	repo.seed(t, sampleItems, clock.Now())
	m.checkRefresh(ctx)
	assert.Equal(t, 0, sender.count())

	clock.Advance(RefreshThreshold + time.Minute)
	m.RecordActivity()
	m.checkRefresh(ctx)
	assert.Equal(t, 1, sender.count())

	// still in flight
	m.checkRefresh(ctx)
	assert.Equal(t, 1, sender.count())
}

func TestRefreshCheck_RunsOnInterval(t *testing.T) {
	m, sender, _, _ := newTestManager(t, WithForceUpdateInterval(10*time.Millisecond))

	m.StartRefreshCheck(context.Background())
	m.StartRefreshCheck(context.Background())

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)

	m.StopRefreshCheck()
	m.StopRefreshCheck()

	// refreshing stays set, so no more sends even after restart
	m.StartRefreshCheck(context.Background())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, sender.count())
}

func TestNewManager_NonPositiveDurationsUseDefaults(t *testing.T) {
	m, _, _, _ := newTestManager(t,
		WithForceUpdateInterval(0),
		WithCacheDuration(-time.Hour),
		WithRefreshThreshold(0),
	)

	assert.Equal(t, ForceUpdateInterval, m.forceUpdateInterval)
	assert.Equal(t, CacheDuration, m.cacheDuration)
	assert.Equal(t, RefreshThreshold, m.refreshThreshold)

	assert.NotPanics(t, func() {
		m.StartRefreshCheck(context.Background())
		m.StopRefreshCheck()
	})
}

func TestRefreshCheck_StopsWithContext(t *testing.T) {
	m, _, _, _ := newTestManager(t, WithForceUpdateInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	m.StartRefreshCheck(ctx)
	done := m.loopDone
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh check did not stop")
	}

	// a stopped loop can be started again
	m.StartRefreshCheck(context.Background())
	assert.NotEqual(t, done, m.loopDone)
}
