// Package entities keeps a client-side copy of one backend entity type.
//
// A Store sends list/get/add/update/remove actions and applies the results
// that come back asynchronously on the message log. It remembers the
// pagination cursor of the listing it asked for last and ignores list
// results that answer an older request.
package entities

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/webappsync/internal/client/dedup"
	"github.com/dmitrijs2005/webappsync/internal/client/i18n"
	"github.com/dmitrijs2005/webappsync/internal/client/notify"
	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/common"
	"github.com/dmitrijs2005/webappsync/internal/logging"
)

var (
	ErrNoMorePages  = errors.New("no more pages")
	ErrIDNotAllowed = errors.New("entity data must not carry an id")
)

// Sender is the outbound half of the message bus.
type Sender interface {
	Send(ctx context.Context, env protocol.Envelope) error
}

// Entity is one record of the store's type. Attributes are dynamic.
type Entity map[string]any

// ID returns the server-assigned id as a string.
func (e Entity) ID() string {
	switch v := e["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Attribute describes one field of the entity type.
type Attribute map[string]any

// Page is the working set together with the cursor of the listing that
// produced it. NextOffset is only meaningful together with RequestID.
type Page struct {
	Entities     []Entity
	Offset       int
	NextOffset   int
	TotalRecords int
	TotalFetched int
	HasMore      bool
	RequestID    string
}

type Store struct {
	name   string
	sender Sender

	user      string
	lang      string
	logger    logging.Logger
	notifier  notify.Notifier
	catalog   *i18n.Catalog
	newID     func() string
	processed *dedup.Set
	corr      *correlator

	mu         sync.Mutex
	page       Page
	attributes []Attribute
	connected  bool
	modal      *protocol.MessageModal
	lastCode   protocol.Code
	// listGen counts FetchEntities calls; list results are deduplicated
	// per generation so a repeated request gets its repeated answer.
	listGen uint64

	changes chan struct{}
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithCatalog(c *i18n.Catalog) Option {
	return func(s *Store) { s.catalog = c }
}

// WithLanguage sets the language of success notifications.
func WithLanguage(lang string) Option {
	return func(s *Store) { s.lang = lang }
}

// WithUser sets env.user on every outbound envelope.
func WithUser(user string) Option {
	return func(s *Store) { s.user = user }
}

// WithDedupCapacity bounds the number of remembered message fingerprints.
func WithDedupCapacity(n int) Option {
	return func(s *Store) { s.processed = dedup.New(n) }
}

// WithRequestIDGenerator replaces the generator of list correlation
// tokens.
func WithRequestIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func New(name string, sender Sender, opts ...Option) *Store {
	s := &Store{
		name:    name,
		sender:  sender,
		lang:    common.DefaultLanguage,
		newID:   uuid.NewString,
		page:    Page{HasMore: true},
		changes: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.With("entity", name)
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.logger)
	}
	if s.catalog == nil {
		s.catalog = i18n.Default(s.logger)
	}
	if s.processed == nil {
		s.processed = dedup.New(dedup.DefaultCapacity)
	}
	s.corr = newCorrelator(s.processed.Capacity())
	return s
}

func (s *Store) Name() string {
	return s.name
}

// Page returns the working set and its cursor.
func (s *Store) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.page
	p.Entities = make([]Entity, len(s.page.Entities))
	copy(p.Entities, s.page.Entities)
	return p
}

func (s *Store) Entities() []Entity {
	return s.Page().Entities
}

func (s *Store) Attributes() []Attribute {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attribute, len(s.attributes))
	copy(out, s.attributes)
	return out
}

func (s *Store) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Store) MessageModal() *protocol.MessageModal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.modal == nil {
		return nil
	}
	m := *s.modal
	return &m
}

// LastCode is the result code of the last handled message for this type.
func (s *Store) LastCode() protocol.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCode
}

// Changes is signalled after every state change. Signals coalesce.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// update runs f under the state lock and signals Changes.
func (s *Store) update(f func()) {
	s.mu.Lock()
	f()
	s.mu.Unlock()

	select {
	case s.changes <- struct{}{}:
	default:
	}
}
