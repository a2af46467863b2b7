package entities

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/webappsync/internal/client/protocol"
	"github.com/dmitrijs2005/webappsync/internal/common"
)

// attributesEntity is the entity type under which the server describes
// the schema of every other type.
const attributesEntity = "entity"

// FetchAttributes requests the attribute description of the entity type.
func (s *Store) FetchAttributes(ctx context.Context) error {
	return s.send(ctx, protocol.NewAction(protocol.ActionGetEntity, s.user, map[string]any{
		"entityName": attributesEntity,
		"primaryKey": s.name,
	}))
}

// FetchEntities clears the working set and requests a page. A negative
// cursorOffset is sent as 0. An empty requestID is replaced by a fresh
// token; results answering any earlier token are ignored from now on.
func (s *Store) FetchEntities(ctx context.Context, limit, cursorOffset int, requestID string) error {
	if limit < 0 {
		return fmt.Errorf("%w: negative limit %d", common.ErrInvalidArgument, limit)
	}
	if cursorOffset < 0 {
		cursorOffset = 0
	}
	if requestID == "" {
		requestID = s.newID()
	}

	s.update(func() {
		s.page.Entities = []Entity{}
		s.listGen++
		s.corr.issue(requestID)
	})

	return s.send(ctx, protocol.NewAction(protocol.ActionListEntity, s.user, map[string]any{
		"entityName": s.name,
		"limit":      limit,
		"offset":     cursorOffset,
		"requestID":  requestID,
	}))
}

// FetchNextPage continues the current listing from its next offset.
func (s *Store) FetchNextPage(ctx context.Context, limit int) error {
	s.mu.Lock()
	hasMore, next, requestID := s.page.HasMore, s.page.NextOffset, s.page.RequestID
	s.mu.Unlock()

	if !hasMore {
		return ErrNoMorePages
	}
	return s.FetchEntities(ctx, limit, next, requestID)
}

// AddEntity asks the server to create an entity. The server assigns the
// id, so data must not contain one.
func (s *Store) AddEntity(ctx context.Context, data map[string]any) error {
	if _, ok := data["id"]; ok {
		return ErrIDNotAllowed
	}
	if data == nil {
		data = map[string]any{}
	}

	env, err := protocol.NewAction(protocol.ActionAddEntity, s.user, map[string]any{
		"entityName": s.name,
	}).WithPayload(map[string]any{"data": data})
	if err != nil {
		return err
	}
	return s.send(ctx, env)
}

// UpdateEntity sends a partial update for primaryKey.
func (s *Store) UpdateEntity(ctx context.Context, primaryKey string, patch map[string]any) error {
	if primaryKey == "" {
		return fmt.Errorf("%w: empty primary key", common.ErrInvalidArgument)
	}
	if patch == nil {
		patch = map[string]any{}
	}
	updates, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode %s updates: %w", s.name, err)
	}

	return s.send(ctx, protocol.NewAction(protocol.ActionUpdateEntity, s.user, map[string]any{
		"entityName": s.name,
		"primaryKey": primaryKey,
		"updates":    string(updates),
	}))
}

func (s *Store) DeleteEntity(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", common.ErrInvalidArgument)
	}
	return s.send(ctx, protocol.NewAction(protocol.ActionRemoveEntity, s.user, map[string]any{
		"entityName": s.name,
		"primaryKey": id,
	}))
}

func (s *Store) send(ctx context.Context, env protocol.Envelope) error {
	if err := s.sender.Send(ctx, env); err != nil {
		s.logger.Error(ctx, "failed to send action", "action", env.Action, "error", err)
		return fmt.Errorf("failed to send %s: %w", env.Action, err)
	}
	s.logger.Debug(ctx, "action sent", "action", env.Action)
	return nil
}
