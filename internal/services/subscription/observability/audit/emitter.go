// Package audit records durable audit events for admin command handling.
//
// Audit events are observability only. They are written after the command
// outcome is known and never influence it; tracing lives in
// internal/platform/otel.
package audit

import (
	"context"
	"time"

	"github.com/fruitbox12/Subscription/internal/platform/requestctx"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

// Emitter records operational audit events.
type Emitter struct {
	store storage.AuditStore
	clock func() time.Time
}

// NewEmitter creates a new audit event emitter.
func NewEmitter(store storage.AuditStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records an audit event. It is a no-op when the store is nil. Request
// and caller identity are taken from ctx when the event leaves them blank.
func (e *Emitter) Emit(ctx context.Context, evt storage.AuditEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.CreatedAt.IsZero() {
		if e.clock == nil {
			evt.CreatedAt = time.Now().UTC()
		} else {
			evt.CreatedAt = e.clock().UTC()
		}
	}
	if evt.RequestID == "" {
		evt.RequestID = requestctx.RequestIDFromContext(ctx)
	}
	if evt.Caller == "" {
		evt.Caller = principal.ID(requestctx.CallerFromContext(ctx))
	}
	return e.store.AppendAuditEvent(ctx, evt)
}
