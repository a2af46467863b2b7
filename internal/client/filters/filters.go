// Package filters keeps the user's filter selections: for each entity type,
// for each field, the set of chosen values. Every change is written to
// storage immediately.
package filters

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/webappsync/internal/client/storage"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

// StorageKey is where the selections are persisted.
const StorageKey = "FilterData"

// Values maps entity type to field to selected values. Values keep their
// insertion order and never repeat.
type Values map[string]map[string][]string

// State is a snapshot of the selections. Visible is true when any value is
// selected.
type State struct {
	Values  Values
	Visible bool
}

type Manager struct {
	repo   storage.Repository
	logger logging.Logger

	mu      sync.Mutex
	values  Values
	changes chan struct{}
}

func NewManager(repo storage.Repository, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		repo:    repo,
		logger:  logger.With("component", "filters"),
		values:  Values{},
		changes: make(chan struct{}, 1),
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Values: m.values.clone(), Visible: m.values.visible()}
}

func (m *Manager) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values.visible()
}

// Values returns the selected values of one field.
func (m *Manager) Values(entityType, field string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.values[entityType][field])
}

func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

// AddFilter selects value. Selecting an already selected value changes
// nothing and writes nothing.
func (m *Manager) AddFilter(ctx context.Context, entityType, field, value string) error {
	m.mu.Lock()
	if slices.Contains(m.values[entityType][field], value) {
		m.mu.Unlock()
		return nil
	}
	if m.values[entityType] == nil {
		m.values[entityType] = map[string][]string{}
	}
	m.values[entityType][field] = append(m.values[entityType][field], value)
	snapshot := m.values.clone()
	m.mu.Unlock()

	m.signal()
	return m.save(ctx, snapshot)
}

// RemoveFilter deselects value, dropping the field and then the entity
// type once they are empty.
func (m *Manager) RemoveFilter(ctx context.Context, entityType, field, value string) error {
	m.mu.Lock()
	current, ok := m.values[entityType][field]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	remaining := slices.DeleteFunc(slices.Clone(current), func(v string) bool { return v == value })
	if len(remaining) == 0 {
		delete(m.values[entityType], field)
	} else {
		m.values[entityType][field] = remaining
	}
	if len(m.values[entityType]) == 0 {
		delete(m.values, entityType)
	}
	snapshot := m.values.clone()
	m.mu.Unlock()

	m.signal()
	return m.save(ctx, snapshot)
}

// ClearEntityFilters deselects everything for one entity type.
func (m *Manager) ClearEntityFilters(ctx context.Context, entityType string) error {
	m.mu.Lock()
	delete(m.values, entityType)
	snapshot := m.values.clone()
	m.mu.Unlock()

	m.signal()
	return m.save(ctx, snapshot)
}

// ClearAllFilters deselects everything and removes the stored snapshot.
func (m *Manager) ClearAllFilters(ctx context.Context) error {
	m.mu.Lock()
	m.values = Values{}
	m.mu.Unlock()

	m.signal()
	if err := m.repo.Delete(ctx, StorageKey); err != nil {
		m.logger.Error(ctx, "failed to remove stored filters", "error", err)
		return fmt.Errorf("failed to remove filters: %w", err)
	}
	return nil
}

// LoadFiltersFromStorage replaces the selections with the stored snapshot.
// When nothing is stored, or the snapshot cannot be read, the selections
// are reset to empty.
func (m *Manager) LoadFiltersFromStorage(ctx context.Context) error {
	loaded, err := m.load(ctx)
	if err != nil {
		m.logger.Error(ctx, "failed to load filters, starting empty", "error", err)
		loaded = Values{}
	}

	m.mu.Lock()
	m.values = loaded
	m.mu.Unlock()

	m.signal()
	return err
}

func (m *Manager) load(ctx context.Context) (Values, error) {
	b, err := m.repo.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters: %w", err)
	}
	if b == nil {
		return Values{}, nil
	}

	var stored Values
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse filters: %w", err)
	}
	return stored.normalize(), nil
}

func (m *Manager) save(ctx context.Context, v Values) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}
	if err := m.repo.Set(ctx, StorageKey, b); err != nil {
		m.logger.Error(ctx, "failed to save filters", "error", err)
		return fmt.Errorf("failed to save filters: %w", err)
	}
	return nil
}

func (m *Manager) signal() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

func (v Values) visible() bool {
	for _, fields := range v {
		for _, values := range fields {
			if len(values) > 0 {
				return true
			}
		}
	}
	return false
}

func (v Values) clone() Values {
	out := make(Values, len(v))
	for entityType, fields := range v {
		f := make(map[string][]string, len(fields))
		for field, values := range fields {
			f[field] = slices.Clone(values)
		}
		out[entityType] = f
	}
	return out
}

// normalize drops repeated values, then empty fields and entity types.
func (v Values) normalize() Values {
	out := Values{}
	for entityType, fields := range v {
		for field, values := range fields {
			var kept []string
			for _, value := range values {
				if !slices.Contains(kept, value) {
					kept = append(kept, value)
				}
			}
			if len(kept) == 0 {
				continue
			}
			if out[entityType] == nil {
				out[entityType] = map[string][]string{}
			}
			out[entityType][field] = kept
		}
	}
	return out
}

// FormatLabel turns a snake_case field key into a label: "first_name"
// becomes "First Name".
func FormatLabel(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
