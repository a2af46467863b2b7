package menu

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Envelope
	err  error
}

func (f *fakeSender) Send(_ context.Context, env protocol.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type memRepo struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   int
	getErr error
	setErr error
}

func newMemRepo() *memRepo {
	return &memRepo{data: map[string][]byte{}}
}

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.data[key], nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.sets++
	r.data[key] = value
	return nil
}

func (r *memRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *memRepo) List(context.Context) (map[string][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]byte, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out, nil
}

func (r *memRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = map[string][]byte{}
	return nil
}

func (r *memRepo) setCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

func (r *memRepo) entry(t *testing.T) CacheEntry {
	t.Helper()
	r.mu.Lock()
	b := r.data[CacheKey]
	r.mu.Unlock()
	require.NotNil(t, b, "menu cache not written")

	var e CacheEntry
	require.NoError(t, json.Unmarshal(b, &e))
	return e
}

func (r *memRepo) seed(t *testing.T, items []Item, at time.Time) {
	t.Helper()
	b, err := json.Marshal(CacheEntry{Items: items, Timestamp: at.UnixMilli(), Version: at.UnixMilli()})
	require.NoError(t, err)
	r.mu.Lock()
	r.data[CacheKey] = b
	r.mu.Unlock()
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func menuMessage(t *testing.T, code string, menu any) protocol.Message {
	t.Helper()
	params := map[string]any{"entityName": "webapp_menu"}
	if menu != nil {
		params["menu"] = menu
	}
	b, err := json.Marshal(map[string]any{
		"action": "GetWebAppMenu",
		"result": map[string]any{"code": code},
		"params": params,
	})
	require.NoError(t, err)
	msg, err := protocol.DecodeMessage(b)
	require.NoError(t, err)
	return msg
}

var sampleItems = []Item{
	{ID: "1", Menu: "Home"},
	{ID: "2", Menu: "Admin", Submenu: []Item{{ID: "21", Menu: "Users"}}},
}

const sampleMenu = `{"id":"root","submenu":[{"id":"1","menu":"Home"},{"id":"2","menu":"Admin","submenu":[{"id":"21","menu":"Users"}]}]}`
