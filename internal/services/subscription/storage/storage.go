// Package storage defines persistence contracts for subscription service state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fruitbox12/Subscription/internal/services/subscription/core/filter"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/settlement"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAdminNotSet indicates the contract admin has not been initialized.
	ErrAdminNotSet = errors.New("contract admin is not set")
)

// Outbox statuses.
const (
	StatusPending = "pending"
)

// AdminStore holds the administrative authority state.
type AdminStore interface {
	IsContractAdmin(ctx context.Context, caller principal.ID) (bool, error)
	GetContractAdmin(ctx context.Context) (principal.ID, error)
	// SetContractAdminIfUnset stores admin when no admin exists yet and
	// reports whether it did.
	SetContractAdminIfUnset(ctx context.Context, admin principal.ID) (bool, error)
}

// ListQuery selects one page of a listing.
type ListQuery struct {
	PageSize  int
	PageToken string
	Filter    filter.SQLCondition
}

// OptionPage stores one page of payment options.
type OptionPage struct {
	Options       []payment.Option
	NextPageToken string
}

// OptionStore persists the set of offered payment options. Adding an option
// that already exists and removing one that does not are both successful
// no-ops.
type OptionStore interface {
	AddSubscriptionOption(ctx context.Context, option payment.Option) error
	RemoveSubscriptionOption(ctx context.Context, option payment.Option) error
	ListSubscriptionOptions(ctx context.Context, query ListQuery) (OptionPage, error)
}

// EnqueueRequest describes the command whose instructions are handed off.
type EnqueueRequest struct {
	RequestID    string
	CommandType  string
	Caller       principal.ID
	Instructions []settlement.Instruction
}

// OutboxEntry is one settlement instruction waiting for the external
// settlement layer.
type OutboxEntry struct {
	ID          string
	RequestID   string
	CommandType string
	Caller      principal.ID
	Instruction settlement.Instruction
	Status      string
	CreatedAt   time.Time
}

// InstructionPage stores one page of outbox entries.
type InstructionPage struct {
	Entries       []OutboxEntry
	NextPageToken string
}

// SettlementOutbox records instructions for external execution.
type SettlementOutbox interface {
	EnqueueInstructions(ctx context.Context, req EnqueueRequest) ([]OutboxEntry, error)
	ListInstructions(ctx context.Context, query ListQuery) (InstructionPage, error)
}

// AuditEvent records one authorization or command outcome.
type AuditEvent struct {
	ID          string
	Name        string
	RequestID   string
	Caller      principal.ID
	CommandType string
	Outcome     string
	Code        string
	Attributes  map[string]string
	CreatedAt   time.Time
}

// AuditStore persists audit events.
type AuditStore interface {
	AppendAuditEvent(ctx context.Context, event AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error)
}

// Store is the full persistence surface of the service.
type Store interface {
	AdminStore
	OptionStore
	SettlementOutbox
	AuditStore
	Close() error
}
