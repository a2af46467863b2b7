// Package app owns every long-lived client component: storage, the message
// bus, the menu and filter managers and one entity store per entity type.
// Construct it once with New, call Start, and Close it on shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/dmitrijs2005/webappsync/internal/client/bus"
	"github.com/dmitrijs2005/webappsync/internal/client/config"
	"github.com/dmitrijs2005/webappsync/internal/client/entities"
	"github.com/dmitrijs2005/webappsync/internal/client/filters"
	"github.com/dmitrijs2005/webappsync/internal/client/i18n"
	"github.com/dmitrijs2005/webappsync/internal/client/menu"
	"github.com/dmitrijs2005/webappsync/internal/client/notify"
	"github.com/dmitrijs2005/webappsync/internal/client/storage"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

var ErrUnknownStorage = errors.New("unknown storage backend")

type App struct {
	cfg      *config.Config
	logger   logging.Logger
	repo     storage.Repository
	sender   bus.Bus
	log      *bus.Log
	notifier notify.Notifier
	catalog  *i18n.Catalog
	menu     *menu.Manager
	filters  *filters.Manager

	unsavedChanges func() bool
	closers        []io.Closer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	stores    map[string]*entities.Store
	started   bool
	closeOnce sync.Once
	closeErr  error
}

type Option func(*App)

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithBus replaces the WebSocket transport. Inbound messages must be
// appended to log.
func WithBus(b bus.Bus, log *bus.Log) Option {
	return func(a *App) {
		a.sender = b
		a.log = log
	}
}

// WithRepository replaces the configured storage backend.
func WithRepository(r storage.Repository) Option {
	return func(a *App) { a.repo = r }
}

func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithUnsavedChanges installs the check that defers menu refreshes.
func WithUnsavedChanges(f func() bool) Option {
	return func(a *App) { a.unsavedChanges = f }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		stores: make(map[string]*entities.Store),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	}
	a.ctx, a.cancel = context.WithCancel(ctx)

	if a.repo == nil {
		repo, closer, err := openStorage(a.ctx, cfg)
		if err != nil {
			a.cancel()
			return nil, err
		}
		a.repo = repo
		a.closers = append(a.closers, closer)
	}

	if a.sender == nil {
		a.log = bus.NewLog()
		settings := bus.DefaultWebSocketSettings()
		settings.ReconnectInterval = cfg.ReconnectInterval
		settings.WriteTimeout = cfg.WriteTimeout
		ws := bus.NewWebSocket(a.ctx, cfg.ServerURL, a.log, settings, a.logger)
		a.sender = ws
		a.closers = append([]io.Closer{ws}, a.closers...)
	}
	if a.log == nil {
		a.log = bus.NewLog()
	}

	if a.notifier == nil {
		a.notifier = notify.NewLogNotifier(a.logger)
	}
	a.catalog = i18n.Default(a.logger)

	menuOpts := []menu.Option{
		menu.WithLogger(a.logger),
		menu.WithUser(cfg.UserID),
		menu.WithCacheDuration(cfg.CacheDuration),
		menu.WithRefreshThreshold(cfg.RefreshThreshold),
		menu.WithForceUpdateInterval(cfg.RefreshThreshold),
		menu.WithDedupCapacity(cfg.DedupCapacity),
	}
	if a.unsavedChanges != nil {
		menuOpts = append(menuOpts, menu.WithUnsavedChanges(a.unsavedChanges))
	}
	a.menu = menu.NewManager(a.sender, a.repo, menuOpts...)
	a.filters = filters.NewManager(a.repo, a.logger)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Repository, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.StorageSQLite, "":
		db, err := storage.OpenSQLite(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLiteRepository(db), db, nil
	case config.StorageRedis:
		r, err := storage.NewRedisRepository(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.StorageBackend)
	}
}

// Start loads the stored filters, starts feeding the menu manager from the
// message log and starts the menu refresh check.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	if err := a.filters.LoadFiltersFromStorage(ctx); err != nil {
		a.logger.Warn(ctx, "stored filters discarded", "error", err)
	}

	a.dispatch(a.menu)
	a.menu.StartRefreshCheck(a.ctx)
	a.logger.Info(ctx, "client started", "server", a.cfg.ServerURL, "storage", a.cfg.StorageBackend)
	return nil
}

// Entities returns the store for an entity type, creating it and
// connecting it to the message log on first use.
func (a *App) Entities(name string) *entities.Store {
	a.mu.Lock()
	defer a.mu.Unlock()

	if s, ok := a.stores[name]; ok {
		return s
	}
	s := entities.New(name, a.sender,
		entities.WithLogger(a.logger),
		entities.WithUser(a.cfg.UserID),
		entities.WithLanguage(a.cfg.Language),
		entities.WithNotifier(a.notifier),
		entities.WithCatalog(a.catalog),
		entities.WithDedupCapacity(a.cfg.DedupCapacity),
	)
	a.stores[name] = s
	a.dispatch(s)
	return s
}

// EntityTypes lists the entity types with a store, sorted.
func (a *App) EntityTypes() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.stores))
	for name := range a.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StoredKeys lists the keys held by the storage backend, sorted.
func (a *App) StoredKeys(ctx context.Context) ([]string, error) {
	all, err := a.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ResetLocalState wipes the storage backend and reloads the filters, which
// leaves them empty. The next menu fetch finds no cache and refreshes.
func (a *App) ResetLocalState(ctx context.Context) error {
	if err := a.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	if err := a.filters.LoadFiltersFromStorage(ctx); err != nil {
		return fmt.Errorf("reload filters: %w", err)
	}
	a.logger.Info(ctx, "local state cleared")
	return nil
}

func (a *App) Menu() *menu.Manager {
	return a.menu
}

func (a *App) Filters() *filters.Manager {
	return a.filters
}

func (a *App) Log() *bus.Log {
	return a.log
}

func (a *App) Logger() logging.Logger {
	return a.logger
}

// Close stops every loop and releases the transport and storage.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.cancel()
		a.menu.StopRefreshCheck()
		a.wg.Wait()

		var errs []error
		for _, c := range a.closers {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

func (a *App) dispatch(c bus.Consumer) {
	d := bus.NewDispatcher(a.log, c, a.logger)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		d.Run(a.ctx)
	}()
}
