package entities

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/dmitrijs2005/webappsync/internal/client/notify"
	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
)

// resyncLimit is the page size requested after a successful removal.
const resyncLimit = 5

// HandleStatus mirrors the connection state of the bus.
func (s *Store) HandleStatus(_ context.Context, connected bool, modal *protocol.MessageModal) {
	s.update(func() {
		s.connected = connected
		if modal != nil {
			m := *modal
			s.modal = &m
		}
	})
}

// HandleMessage applies one inbound message. Messages without a result
// code, already processed messages, actions this store does not handle
// and messages for other entity types are ignored.
func (s *Store) HandleMessage(ctx context.Context, msg protocol.Message) {
	if !msg.HasCode() {
		return
	}
	if !s.processed.CheckAndAdd(s.dedupKey(msg)) {
		s.logger.Debug(ctx, "duplicate message skipped", "action", msg.Action)
		return
	}

	switch msg.Action {
	case protocol.ActionListEntity, protocol.ActionAddEntity,
		protocol.ActionUpdateEntity, protocol.ActionRemoveEntity:
		if name := msg.EntityName(); name != "" && name != s.name {
			return
		}
	case protocol.ActionGetEntity:
		// answered under the schema type, matched by definition key below
	default:
		return
	}

	s.update(func() { s.lastCode = msg.Code })

	switch msg.Action {
	case protocol.ActionListEntity:
		if msg.Code == protocol.CodeSuccess200 {
			s.handleList(ctx, msg)
		}
	case protocol.ActionGetEntity:
		if msg.Code == protocol.CodeSuccess200 {
			s.handleGet(ctx, msg)
		}
	case protocol.ActionUpdateEntity:
		if msg.Code == protocol.CodeSuccess199 {
			s.notifySuccess(ctx, msg.Code)
		}
	case protocol.ActionRemoveEntity:
		if msg.Code == protocol.CodeSuccess220 {
			s.notifySuccess(ctx, msg.Code)
			// error already logged by send
			_ = s.FetchEntities(ctx, resyncLimit, 0, "")
		}
	case protocol.ActionAddEntity:
		if msg.Code == protocol.CodeSuccess122 {
			s.notifySuccess(ctx, msg.Code)
		}
	}
}

// dedupKey is the message fingerprint, prefixed for list results with the
// generation of the latest FetchEntities call.
func (s *Store) dedupKey(msg protocol.Message) string {
	fp := msg.Fingerprint()
	if msg.Action != protocol.ActionListEntity {
		return fp
	}
	s.mu.Lock()
	gen := s.listGen
	s.mu.Unlock()
	return strconv.FormatUint(gen, 10) + ":" + fp
}

func (s *Store) handleList(ctx context.Context, msg protocol.Message) {
	res, err := msg.Decode()
	if err != nil {
		s.logDecodeError(ctx, msg, err)
		return
	}
	r := res.(protocol.ListEntityResult)

	s.mu.Lock()
	v := s.corr.check(r.RequestID)
	s.mu.Unlock()
	if v != accepted {
		s.logger.Debug(ctx, "list result dropped", "requestID", r.RequestID, "reason", v.String())
		return
	}

	items := s.parseEntityData(ctx, r.Result)
	s.update(func() {
		s.page = Page{
			Entities:     items,
			Offset:       r.Offset,
			NextOffset:   r.NextOffset,
			TotalRecords: r.TotalRecords,
			TotalFetched: r.TotalFetched,
			HasMore:      r.HasMore,
			RequestID:    r.RequestID,
		}
	})
	s.logger.Debug(ctx, "working set replaced", "count", len(items), "hasMore", r.HasMore, "nextOffset", r.NextOffset)
}

func (s *Store) handleGet(ctx context.Context, msg protocol.Message) {
	res, err := msg.Decode()
	if err != nil {
		s.logDecodeError(ctx, msg, err)
		return
	}
	doc, ok := res.(protocol.GetEntityResult).Definition(s.name)
	if !ok {
		return
	}

	var def struct {
		Attributes []Attribute `json:"attributes"`
	}
	if err := json.Unmarshal([]byte(doc), &def); err != nil {
		s.logger.Error(ctx, "failed to parse attributes", "error", err)
		def.Attributes = nil
	}
	if def.Attributes == nil {
		def.Attributes = []Attribute{}
	}
	s.update(func() { s.attributes = def.Attributes })
}

// parseEntityData decodes a JSON array of entities. Malformed input yields
// an empty slice.
func (s *Store) parseEntityData(ctx context.Context, data string) []Entity {
	var items []Entity
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		s.logger.Error(ctx, "failed to parse entity data", "error", err)
		return []Entity{}
	}
	if items == nil {
		items = []Entity{}
	}
	return items
}

func (s *Store) notifySuccess(ctx context.Context, code protocol.Code) {
	text := s.catalog.Translate(ctx, string(code), s.lang, map[string]string{"entityName": s.name})
	s.notifier.Notify(ctx, notify.Notification{
		Kind:    notify.KindSuccess,
		Code:    string(code),
		Message: text,
	})
}

func (s *Store) logDecodeError(ctx context.Context, msg protocol.Message, err error) {
	var de *protocol.DecodeError
	if errors.As(err, &de) && de.Err == nil {
		// field absent: nothing to apply
		s.logger.Debug(ctx, "message without payload ignored", "action", msg.Action, "field", de.Field)
		return
	}
	s.logger.Warn(ctx, "failed to decode message", "action", msg.Action, "error", err)
}
