// Package admin implements the subscription.v1.AdminService gRPC API.
package admin

import (
	"context"
	stderrors "errors"
	"log"
	"strings"

	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/platform/errors/i18n"
	"github.com/fruitbox12/Subscription/internal/platform/requestctx"
	"github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/callergrant"
	grpcmeta "github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/metadata"
	"github.com/fruitbox12/Subscription/internal/services/subscription/core/filter"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/command"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/engine"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/observability/audit"
	"github.com/fruitbox12/Subscription/internal/services/subscription/observability/audit/events"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Deps are the collaborators of the admin service.
type Deps struct {
	Registry  *command.Registry
	Processor engine.Processor
	Options   storage.OptionStore
	Outbox    storage.SettlementOutbox
	Audit     *audit.Emitter
	Grants    callergrant.VerifierConfig
}

// Service exposes subscription.v1.AdminService operations.
type Service struct {
	registry  *command.Registry
	processor engine.Processor
	options   storage.OptionStore
	outbox    storage.SettlementOutbox
	audit     *audit.Emitter
	grants    callergrant.VerifierConfig
}

// NewService creates an admin service.
func NewService(deps Deps) *Service {
	registry := deps.Registry
	if registry == nil {
		registry = command.NewAdminRegistry()
	}
	return &Service{
		registry:  registry,
		processor: deps.Processor,
		options:   deps.Options,
		outbox:    deps.Outbox,
		audit:     deps.Audit,
		grants:    deps.Grants,
	}
}

// Execute decodes and runs one admin command. Instructions produced by a
// successful command are appended to the settlement outbox before the
// response is returned.
func (s *Service) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, ctx, err := s.resolveCaller(ctx)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	req, err := decodeExecuteRequest(in)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	cmd, err := s.registry.Decode(command.Type(req.Type), req.PayloadJSON)
	if err != nil {
		s.emit(ctx, events.CommandFailed, req.Type, events.OutcomeError, err, nil)
		return nil, statusError(ctx, err)
	}

	result, err := s.processor.Execute(ctx, caller, cmd)
	s.emitDecision(ctx, req.Type, result.State, err)
	if err != nil {
		s.emit(ctx, events.CommandFailed, req.Type, events.OutcomeError, err, map[string]string{"state": string(result.State)})
		return nil, statusError(ctx, err)
	}

	var entries []storage.OutboxEntry
	if len(result.Instructions) > 0 {
		if s.outbox == nil {
			return nil, statusError(ctx, errors.New(errors.CodeStorageWrite, "settlement outbox is not configured"))
		}
		entries, err = s.outbox.EnqueueInstructions(ctx, storage.EnqueueRequest{
			RequestID:    requestctx.RequestIDFromContext(ctx),
			CommandType:  req.Type,
			Caller:       caller,
			Instructions: result.Instructions,
		})
		if err != nil {
			s.emit(ctx, events.CommandFailed, req.Type, events.OutcomeError, err, map[string]string{"state": string(result.State)})
			return nil, statusError(ctx, err)
		}
		s.emit(ctx, events.InstructionsEnqueued, req.Type, events.OutcomeOK, nil, nil)
	}
	s.emit(ctx, events.CommandExecuted, req.Type, events.OutcomeOK, nil, map[string]string{"state": string(result.State)})

	instructions := make([]any, 0, len(entries))
	for _, entry := range entries {
		instructions = append(instructions, entryToValue(entry))
	}
	out, err := newStruct(map[string]any{
		"state":        string(result.State),
		"instructions": instructions,
	})
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return out, nil
}

// ListSubscriptionOptions returns one page of offered payment options. Any
// caller may list options.
func (s *Service) ListSubscriptionOptions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.options == nil {
		return nil, statusError(ctx, stderrors.New("option store is not configured"))
	}
	query, err := listQuery(in, filter.OptionSchema)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	page, err := s.options.ListSubscriptionOptions(ctx, query)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	options := make([]any, 0, len(page.Options))
	for _, option := range page.Options {
		options = append(options, optionToValue(option))
	}
	out, err := newStruct(map[string]any{
		"options":         options,
		"next_page_token": page.NextPageToken,
	})
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return out, nil
}

// ListSettlementInstructions returns one page of the settlement outbox. Only
// the contract admin may list it.
func (s *Service) ListSettlementInstructions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s == nil || s.outbox == nil {
		return nil, statusError(ctx, stderrors.New("settlement outbox is not configured"))
	}
	caller, ctx, err := s.resolveCaller(ctx)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	if s.processor.Gate == nil {
		return nil, statusError(ctx, errors.New(errors.CodeStateRead, "authorization gate is not configured"))
	}
	ok, err := s.processor.Gate.IsAuthorized(ctx, caller)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	if !ok {
		return nil, statusError(ctx, errors.New(errors.CodeUnauthorized, "caller is not the contract admin"))
	}

	query, err := listQuery(in, filter.InstructionSchema)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	page, err := s.outbox.ListInstructions(ctx, query)
	if err != nil {
		return nil, statusError(ctx, err)
	}
	entries := make([]any, 0, len(page.Entries))
	for _, entry := range page.Entries {
		entries = append(entries, entryToValue(entry))
	}
	out, err := newStruct(map[string]any{
		"instructions":    entries,
		"next_page_token": page.NextPageToken,
	})
	if err != nil {
		return nil, statusError(ctx, err)
	}
	return out, nil
}

// resolveCaller identifies the caller. With caller grants configured only a
// verified bearer grant is accepted; otherwise the caller header is used as
// given.
func (s *Service) resolveCaller(ctx context.Context) (principal.ID, context.Context, error) {
	var caller principal.ID
	if s.grants.Enabled() {
		token := grpcmeta.BearerTokenFromIncoming(ctx)
		if token == "" {
			return "", ctx, errors.New(errors.CodeCallerRequired, "caller grant is required")
		}
		claims, err := callergrant.Verify(token, s.grants)
		if err != nil {
			return "", ctx, err
		}
		caller = claims.Caller
	} else {
		caller = principal.ID(grpcmeta.CallerFromIncoming(ctx))
	}
	if caller.IsZero() {
		return "", ctx, errors.New(errors.CodeCallerRequired, "caller identity is required")
	}
	return caller, requestctx.WithCaller(ctx, string(caller)), nil
}

func listQuery(in *structpb.Struct, schema filter.Schema) (storage.ListQuery, error) {
	req, err := decodeListRequest(in)
	if err != nil {
		return storage.ListQuery{}, err
	}
	cond, err := filter.Parse(schema, req.Filter)
	if err != nil {
		return storage.ListQuery{}, errors.Wrap(errors.CodeFilterInvalid, "parse filter", err)
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return storage.ListQuery{PageSize: pageSize, PageToken: strings.TrimSpace(req.PageToken), Filter: cond}, nil
}

func (s *Service) emitDecision(ctx context.Context, cmdType string, state engine.State, err error) {
	switch state {
	case engine.StateReceived:
		s.emit(ctx, events.AuthzDecision, cmdType, events.OutcomeError, err, nil)
	case engine.StateRejected:
		s.emit(ctx, events.AuthzDecision, cmdType, events.OutcomeDenied, err, nil)
	default:
		s.emit(ctx, events.AuthzDecision, cmdType, events.OutcomeAllowed, nil, nil)
	}
}

func (s *Service) emit(ctx context.Context, name, cmdType, outcome string, err error, attributes map[string]string) {
	if s.audit == nil {
		return
	}
	event := storage.AuditEvent{
		Name:        name,
		CommandType: cmdType,
		Outcome:     outcome,
		Attributes:  attributes,
	}
	if err != nil {
		event.Code = string(errors.CodeOf(err))
	}
	if emitErr := s.audit.Emit(ctx, event); emitErr != nil {
		log.Printf("audit emit %s: %v", name, emitErr)
	}
}

// statusError converts err into a gRPC status carrying a localized message.
func statusError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) {
		domainErr = errors.Wrap(errors.CodeUnknown, "", err)
	}
	locale := requestctx.LocaleFromContext(ctx)
	if locale == "" {
		locale = grpcmeta.LocaleFromIncoming(ctx)
	}
	catalog := i18n.GetCatalog(locale)
	message := catalog.Format(string(domainErr.Code), domainErr.Metadata)
	return domainErr.ToGRPCStatus(catalog.Locale(), message)
}

var _ AdminServiceServer = (*Service)(nil)
