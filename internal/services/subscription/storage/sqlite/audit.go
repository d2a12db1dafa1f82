package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

// AppendAuditEvent records event. Missing IDs and timestamps are filled in.
func (s *Store) AppendAuditEvent(ctx context.Context, event storage.AuditEvent) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name := strings.TrimSpace(event.Name)
	if name == "" {
		return fmt.Errorf("audit event name is required")
	}
	if event.ID == "" {
		eventID, err := s.nextID()
		if err != nil {
			return fmt.Errorf("generate audit event id: %w", err)
		}
		event.ID = eventID
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.timestamp()
	}
	attributes := event.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("encode audit attributes: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO audit_events (
		   id, name, request_id, caller, command_type, outcome, code, attributes_json, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		name,
		event.RequestID,
		string(event.Caller),
		event.CommandType,
		event.Outcome,
		event.Code,
		string(attributesJSON),
		toMillis(event.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns the most recent events, newest first.
func (s *Store) ListAuditEvents(ctx context.Context, limit int) ([]storage.AuditEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, request_id, caller, command_type, outcome, code, attributes_json, created_at
		   FROM audit_events
		  ORDER BY seq DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []storage.AuditEvent
	for rows.Next() {
		var (
			event          storage.AuditEvent
			caller         string
			attributesJSON string
			createdAt      int64
		)
		if err := rows.Scan(&event.ID, &event.Name, &event.RequestID, &caller, &event.CommandType,
			&event.Outcome, &event.Code, &attributesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("list audit events: %w", err)
		}
		if err := json.Unmarshal([]byte(attributesJSON), &event.Attributes); err != nil {
			return nil, fmt.Errorf("list audit events: decode attributes of %s: %w", event.ID, err)
		}
		event.Caller = principal.ID(caller)
		event.CreatedAt = fromMillis(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
