package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/webappsync/internal/client/app"
	"github.com/dmitrijs2005/webappsync/internal/client/filters"
	"github.com/dmitrijs2005/webappsync/internal/client/menu"
)

const defaultWait = 2 * time.Second

// App adapts the application context to the shell commands.
type App struct {
	core *app.App
	wait time.Duration
}

func NewApp(core *app.App) *App {
	return &App{core: core, wait: defaultWait}
}

// Run starts the client and reads commands from stdin until exit or EOF.
func (a *App) Run(ctx context.Context) error {
	if err := a.core.Start(ctx); err != nil {
		return err
	}
	printlnFn("webappsync shell (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
	return nil
}

func (a *App) status() string {
	if a.core.Menu().IsConnected() {
		return "(online)"
	}
	return "(offline)"
}

// await waits for the next change signal on ch, at most a.wait. A signal
// already pending from the request itself is discarded first.
func (a *App) await(ctx context.Context, ch <-chan struct{}) {
	select {
	case <-ch:
	default:
	}
	t := time.NewTimer(a.wait)
	defer t.Stop()
	select {
	case <-ch:
	case <-t.C:
	case <-ctx.Done():
	}
}

// RecordActivity marks user input for the menu cache's inactivity check.
func (a *App) RecordActivity() {
	a.core.Menu().RecordActivity()
}

func (a *App) Menu(ctx context.Context, force bool) error {
	m := a.core.Menu()
	if err := m.FetchMenuItems(ctx, force); err != nil {
		return err
	}
	if m.IsRefreshing() {
		a.await(ctx, m.Changes())
	}
	printMenu(m.Items(), 0)
	return nil
}

func printMenu(items []menu.Item, depth int) {
	for _, it := range items {
		printlnFn(fmt.Sprintf("%s- %s [%s]", strings.Repeat("  ", depth), it.Menu, it.ID))
		printMenu(it.Submenu, depth+1)
	}
}

func (a *App) Attrs(ctx context.Context, entity string) error {
	s := a.core.Entities(entity)
	if err := s.FetchAttributes(ctx); err != nil {
		return err
	}
	a.await(ctx, s.Changes())
	for _, attr := range s.Attributes() {
		printJSON(attr)
	}
	return nil
}

func (a *App) List(ctx context.Context, entity string, limit, offset int) error {
	s := a.core.Entities(entity)
	if err := s.FetchEntities(ctx, limit, offset, ""); err != nil {
		return err
	}
	a.await(ctx, s.Changes())
	return a.Show(ctx, entity)
}

func (a *App) Next(ctx context.Context, entity string, limit int) error {
	s := a.core.Entities(entity)
	if err := s.FetchNextPage(ctx, limit); err != nil {
		return err
	}
	a.await(ctx, s.Changes())
	return a.Show(ctx, entity)
}

func (a *App) Show(_ context.Context, entity string) error {
	p := a.core.Entities(entity).Page()
	printlnFn(fmt.Sprintf("%s: %d of %d (offset %d, next %d, more %t)",
		entity, len(p.Entities), p.TotalRecords, p.Offset, p.NextOffset, p.HasMore))
	for _, e := range p.Entities {
		printJSON(e)
	}
	return nil
}

func (a *App) Add(ctx context.Context, entity string, fields map[string]any) error {
	return a.core.Entities(entity).AddEntity(ctx, fields)
}

func (a *App) Update(ctx context.Context, entity, id string, fields map[string]any) error {
	return a.core.Entities(entity).UpdateEntity(ctx, id, fields)
}

func (a *App) Delete(ctx context.Context, entity, id string) error {
	return a.core.Entities(entity).DeleteEntity(ctx, id)
}

func (a *App) FilterAdd(ctx context.Context, entity, field, value string) error {
	return a.core.Filters().AddFilter(ctx, entity, field, value)
}

func (a *App) FilterRemove(ctx context.Context, entity, field, value string) error {
	return a.core.Filters().RemoveFilter(ctx, entity, field, value)
}

func (a *App) FilterClear(ctx context.Context, entity string) error {
	if entity == "" {
		return a.core.Filters().ClearAllFilters(ctx)
	}
	return a.core.Filters().ClearEntityFilters(ctx, entity)
}

func (a *App) Filters(_ context.Context) error {
	st := a.core.Filters().State()
	if !st.Visible {
		printlnFn("No filters selected")
		return nil
	}
	for _, entity := range sortedKeys(map[string]map[string][]string(st.Values)) {
		fields := st.Values[entity]
		for _, field := range sortedKeys(fields) {
			printlnFn(fmt.Sprintf("%s / %s: %s", entity, filters.FormatLabel(field), strings.Join(fields[field], ", ")))
		}
	}
	return nil
}

func (a *App) Types(_ context.Context) error {
	for _, name := range a.core.EntityTypes() {
		printlnFn(name)
	}
	return nil
}

func (a *App) Keys(ctx context.Context) error {
	keys, err := a.core.StoredKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		printlnFn(k)
	}
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	if err := a.core.ResetLocalState(ctx); err != nil {
		return err
	}
	printlnFn("Local state cleared")
	return nil
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		printlnFn(fmt.Sprint(v))
		return
	}
	printlnFn(string(b))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
