// Package menu keeps the application navigation menu cached locally.
//
// The cached tree is served immediately while it is younger than
// RefreshThreshold. Between RefreshThreshold and CacheDuration it is still
// served but a refresh is requested as well. Past CacheDuration, or after
// CacheDuration without user activity, the cache is treated as absent.
// A background check re-evaluates this every ForceUpdateInterval.
package menu

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/webappsync/internal/client/dedup"
	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/client/storage"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

const (
	CacheDuration       = 24 * time.Hour
	RefreshThreshold    = 23 * time.Hour
	ForceUpdateInterval = RefreshThreshold
)

// Sender is the outbound half of the message bus.
type Sender interface {
	Send(ctx context.Context, env protocol.Envelope) error
}

type Manager struct {
	sender Sender
	repo   storage.Repository

	user                string
	logger              logging.Logger
	now                 func() time.Time
	cacheDuration       time.Duration
	refreshThreshold    time.Duration
	forceUpdateInterval time.Duration
	unsavedChanges      func() bool
	processed           *dedup.Set

	mu           sync.Mutex
	items        []Item
	refreshing   bool
	lastUpdate   time.Time
	lastActivity time.Time
	connected    bool
	modal        *protocol.MessageModal
	changes      chan struct{}

	loopMu     sync.Mutex
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithUser(user string) Option {
	return func(m *Manager) { m.user = user }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithCacheDuration(d time.Duration) Option {
	return func(m *Manager) { m.cacheDuration = d }
}

func WithRefreshThreshold(d time.Duration) Option {
	return func(m *Manager) { m.refreshThreshold = d }
}

func WithForceUpdateInterval(d time.Duration) Option {
	return func(m *Manager) { m.forceUpdateInterval = d }
}

// WithUnsavedChanges installs the check consulted before every refresh.
// While it reports true refreshes are deferred.
func WithUnsavedChanges(f func() bool) Option {
	return func(m *Manager) { m.unsavedChanges = f }
}

func WithDedupCapacity(n int) Option {
	return func(m *Manager) { m.processed = dedup.New(n) }
}

func NewManager(sender Sender, repo storage.Repository, opts ...Option) *Manager {
	m := &Manager{
		sender:              sender,
		repo:                repo,
		now:                 time.Now,
		cacheDuration:       CacheDuration,
		refreshThreshold:    RefreshThreshold,
		forceUpdateInterval: ForceUpdateInterval,
		unsavedChanges:      func() bool { return false },
		changes:             make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.Nop()
	}
	m.logger = m.logger.With("component", "menu")
	if m.processed == nil {
		m.processed = dedup.New(dedup.DefaultCapacity)
	}
	m.fixDurations()
	m.lastActivity = m.now()
	return m
}

// fixDurations replaces non-positive durations with the package defaults.
func (m *Manager) fixDurations() {
	for _, d := range []struct {
		name string
		v    *time.Duration
		def  time.Duration
	}{
		{"cache_duration", &m.cacheDuration, CacheDuration},
		{"refresh_threshold", &m.refreshThreshold, RefreshThreshold},
		{"force_update_interval", &m.forceUpdateInterval, ForceUpdateInterval},
	} {
		if *d.v <= 0 {
			m.logger.Warn(context.Background(), "non-positive duration replaced by default",
				"option", d.name, "value", *d.v, "default", d.def)
			*d.v = d.def
		}
	}
}

func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) IsRefreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// LastUpdate is when the menu was last written to the cache. Zero until
// the first write or cache hit.
func (m *Manager) LastUpdate() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdate
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) MessageModal() *protocol.MessageModal {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.modal == nil {
		return nil
	}
	cp := *m.modal
	return &cp
}

func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

// RecordActivity marks user input (pointer movement, key press). It only
// feeds the inactivity check of the freshness policy.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = m.now()
}

// HandleStatus mirrors the connection state of the bus.
func (m *Manager) HandleStatus(_ context.Context, connected bool, modal *protocol.MessageModal) {
	m.update(func() {
		m.connected = connected
		if modal != nil {
			cp := *modal
			m.modal = &cp
		}
	})
}

func (m *Manager) update(f func()) {
	m.mu.Lock()
	f()
	m.mu.Unlock()

	select {
	case m.changes <- struct{}{}:
	default:
	}
}
