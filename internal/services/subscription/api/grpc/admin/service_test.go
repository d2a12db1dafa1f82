package admin

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/platform/requestctx"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/authz"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/engine"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/observability/audit"
	"github.com/fruitbox12/Subscription/internal/services/subscription/storage"
	subscriptionsqlite "github.com/fruitbox12/Subscription/internal/services/subscription/storage/sqlite"
)

const testAdmin = principal.ID("admin-1")

type fakeGate struct {
	admin principal.ID
	err   error
}

func (g fakeGate) IsAuthorized(_ context.Context, caller principal.ID) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return caller == g.admin, nil
}

type fakeOptions struct {
	added   []payment.Option
	removed []payment.Option
	page    storage.OptionPage
	query   storage.ListQuery
	err     error
}

func (s *fakeOptions) AddSubscriptionOption(_ context.Context, option payment.Option) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, option)
	return nil
}

func (s *fakeOptions) RemoveSubscriptionOption(_ context.Context, option payment.Option) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, option)
	return nil
}

func (s *fakeOptions) ListSubscriptionOptions(_ context.Context, query storage.ListQuery) (storage.OptionPage, error) {
	s.query = query
	return s.page, s.err
}

type fakeOutbox struct {
	requests []storage.EnqueueRequest
	page     storage.InstructionPage
	query    storage.ListQuery
	err      error
}

func (o *fakeOutbox) EnqueueInstructions(_ context.Context, req storage.EnqueueRequest) ([]storage.OutboxEntry, error) {
	if o.err != nil {
		return nil, o.err
	}
	o.requests = append(o.requests, req)
	entries := make([]storage.OutboxEntry, 0, len(req.Instructions))
	for i, ins := range req.Instructions {
		entries = append(entries, storage.OutboxEntry{
			ID:          fmt.Sprintf("entry-%d", i+1),
			RequestID:   req.RequestID,
			CommandType: req.CommandType,
			Caller:      req.Caller,
			Instruction: ins,
			Status:      storage.StatusPending,
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}
	return entries, nil
}

func (o *fakeOutbox) ListInstructions(_ context.Context, query storage.ListQuery) (storage.InstructionPage, error) {
	o.query = query
	return o.page, o.err
}

type fakeAuditStore struct {
	events []storage.AuditEvent
}

func (s *fakeAuditStore) AppendAuditEvent(_ context.Context, evt storage.AuditEvent) error {
	s.events = append(s.events, evt)
	return nil
}

func (s *fakeAuditStore) ListAuditEvents(context.Context, int) ([]storage.AuditEvent, error) {
	return s.events, nil
}

type fixture struct {
	svc     *Service
	options *fakeOptions
	outbox  *fakeOutbox
	audit   *fakeAuditStore
}

func newFixture(gate engine.Authorizer) fixture {
	options := &fakeOptions{}
	outbox := &fakeOutbox{}
	auditStore := &fakeAuditStore{}
	svc := NewService(Deps{
		Processor: engine.Processor{Gate: gate, Options: options},
		Options:   options,
		Outbox:    outbox,
		Audit:     audit.NewEmitter(auditStore),
	})
	return fixture{svc: svc, options: options, outbox: outbox, audit: auditStore}
}

func callerContext(caller principal.ID) context.Context {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-subscription-caller", string(caller)))
	return requestctx.WithRequestID(ctx, "req-1")
}

func mustExecuteRequest(t *testing.T, cmdType string, payload map[string]any) *structpb.Struct {
	t.Helper()
	req, err := NewExecuteRequest(cmdType, payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

func withdrawPayload(amount string) map[string]any {
	return map[string]any{"denom": "uatom", "amount": amount, "beneficiary": "addr1"}
}

func optionPayload(days int, amount, denom string) map[string]any {
	return map[string]any{"subscription_option": map[string]any{
		"subscription_duration_days": days,
		"price":                      map[string]any{"denom": denom, "amount": amount},
	}}
}

func assertStatus(t *testing.T, err error, code codes.Code, reason string) {
	t.Helper()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected grpc status, got %v", err)
	}
	if st.Code() != code {
		t.Fatalf("code = %v, want %v (%v)", st.Code(), code, err)
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			if info.GetReason() != reason {
				t.Fatalf("reason = %q, want %q", info.GetReason(), reason)
			}
			return
		}
	}
	t.Fatalf("missing ErrorInfo detail in %v", err)
}

func TestExecuteWithdrawEnqueuesBankSend(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})

	resp, err := f.svc.Execute(callerContext(testAdmin), mustExecuteRequest(t, "admin.withdraw", withdrawPayload("500")))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := resp.GetFields()["state"].GetStringValue(); got != string(engine.StateWithdrawExecuted) {
		t.Fatalf("state = %q", got)
	}
	instructions := resp.GetFields()["instructions"].GetListValue().GetValues()
	if len(instructions) != 1 {
		t.Fatalf("instructions = %d, want 1", len(instructions))
	}
	ins := instructions[0].GetStructValue().GetFields()
	if ins["kind"].GetStringValue() != "bank_send" || ins["to_address"].GetStringValue() != "addr1" {
		t.Fatalf("instruction = %v", ins)
	}
	amount := ins["amount"].GetListValue().GetValues()
	if len(amount) != 1 || amount[0].GetStructValue().GetFields()["amount"].GetStringValue() != "500" {
		t.Fatalf("amount = %v", amount)
	}
	if len(f.outbox.requests) != 1 {
		t.Fatalf("enqueue calls = %d", len(f.outbox.requests))
	}
	req := f.outbox.requests[0]
	if req.RequestID != "req-1" || req.Caller != testAdmin || req.CommandType != "admin.withdraw" {
		t.Fatalf("enqueue request = %+v", req)
	}
}

func TestExecuteRejectsNonAdmin(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})

	_, err := f.svc.Execute(callerContext("mallory"), mustExecuteRequest(t, "admin.withdraw", withdrawPayload("500")))
	assertStatus(t, err, codes.PermissionDenied, "UNAUTHORIZED")
	if len(f.outbox.requests) != 0 {
		t.Fatal("rejected withdraw must not enqueue instructions")
	}

	_, err = f.svc.Execute(callerContext("mallory"), mustExecuteRequest(t, "admin.subscription_option.add", optionPayload(30, "100", "uatom")))
	assertStatus(t, err, codes.PermissionDenied, "UNAUTHORIZED")
	if len(f.options.added) != 0 {
		t.Fatal("rejected add must not write")
	}

	var denied bool
	for _, evt := range f.audit.events {
		if evt.Name == "subscription.authz.decision" && evt.Outcome == "denied" && evt.Caller == "mallory" {
			denied = true
		}
	}
	if !denied {
		t.Fatalf("missing denied decision in %+v", f.audit.events)
	}
}

func TestExecuteOptionCommands(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	ctx := callerContext(testAdmin)

	resp, err := f.svc.Execute(ctx, mustExecuteRequest(t, "admin.subscription_option.add", optionPayload(30, "100", "uatom")))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := resp.GetFields()["state"].GetStringValue(); got != string(engine.StateOptionAdded) {
		t.Fatalf("state = %q", got)
	}
	if len(resp.GetFields()["instructions"].GetListValue().GetValues()) != 0 {
		t.Fatal("add must not produce instructions")
	}
	want := payment.Option{SubscriptionDurationDays: 30, Price: coin.New("uatom", coin.NewAmount(100))}
	if len(f.options.added) != 1 || f.options.added[0] != want {
		t.Fatalf("added = %+v", f.options.added)
	}

	resp, err = f.svc.Execute(ctx, mustExecuteRequest(t, "admin.subscription_option.remove", optionPayload(30, "100", "uatom")))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := resp.GetFields()["state"].GetStringValue(); got != string(engine.StateOptionRemoved) {
		t.Fatalf("state = %q", got)
	}
	if len(f.options.removed) != 1 || f.options.removed[0] != want {
		t.Fatalf("removed = %+v", f.options.removed)
	}
	if len(f.outbox.requests) != 0 {
		t.Fatal("option commands must not touch the outbox")
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		req    func(t *testing.T) *structpb.Struct
		code   codes.Code
		reason string
	}{
		{
			name:   "missing caller",
			ctx:    context.Background(),
			req:    func(t *testing.T) *structpb.Struct { return mustExecuteRequest(t, "admin.withdraw", withdrawPayload("1")) },
			code:   codes.Unauthenticated,
			reason: "CALLER_REQUIRED",
		},
		{
			name:   "unknown type",
			ctx:    callerContext(testAdmin),
			req:    func(t *testing.T) *structpb.Struct { return mustExecuteRequest(t, "admin.burn", map[string]any{}) },
			code:   codes.InvalidArgument,
			reason: "COMMAND_TYPE_UNKNOWN",
		},
		{
			name: "duration beyond exact range",
			ctx:  callerContext(testAdmin),
			req: func(t *testing.T) *structpb.Struct {
				return mustExecuteRequest(t, "admin.subscription_option.add", map[string]any{"subscription_option": map[string]any{
					"subscription_duration_days": uint64(9007199254740993),
					"price":                      map[string]any{"denom": "uatom", "amount": "100"},
				}})
			},
			code:   codes.InvalidArgument,
			reason: "COMMAND_PAYLOAD_INVALID",
		},
		{
			name: "fractional duration",
			ctx:  callerContext(testAdmin),
			req: func(t *testing.T) *structpb.Struct {
				return mustExecuteRequest(t, "admin.subscription_option.remove", map[string]any{"subscription_option": map[string]any{
					"subscription_duration_days": 1.5,
					"price":                      map[string]any{"denom": "uatom", "amount": "100"},
				}})
			},
			code:   codes.InvalidArgument,
			reason: "COMMAND_PAYLOAD_INVALID",
		},
		{
			name:   "missing type",
			ctx:    callerContext(testAdmin),
			req:    func(*testing.T) *structpb.Struct { return &structpb.Struct{} },
			code:   codes.InvalidArgument,
			reason: "COMMAND_PAYLOAD_INVALID",
		},
		{
			name:   "bad amount",
			ctx:    callerContext(testAdmin),
			req:    func(t *testing.T) *structpb.Struct { return mustExecuteRequest(t, "admin.withdraw", withdrawPayload("12abc")) },
			code:   codes.InvalidArgument,
			reason: "INVALID_AMOUNT",
		},
		{
			name: "incomplete option",
			ctx:  callerContext(testAdmin),
			req: func(t *testing.T) *structpb.Struct {
				return mustExecuteRequest(t, "admin.subscription_option.add", optionPayload(30, "100", ""))
			},
			code:   codes.InvalidArgument,
			reason: "PAYMENT_OPTION_INCOMPLETE",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(fakeGate{admin: testAdmin})
			_, err := f.svc.Execute(tc.ctx, tc.req(t))
			assertStatus(t, err, tc.code, tc.reason)
			if len(f.outbox.requests) != 0 || len(f.options.added) != 0 || len(f.options.removed) != 0 {
				t.Fatal("failed command must not have effects")
			}
		})
	}
}

type failingAuthority struct{}

func (failingAuthority) IsContractAdmin(context.Context, principal.ID) (bool, error) {
	return false, fmt.Errorf("disk gone")
}

func TestExecuteGateReadFailure(t *testing.T) {
	f := newFixture(authz.NewGate(failingAuthority{}))

	_, err := f.svc.Execute(callerContext(testAdmin), mustExecuteRequest(t, "admin.withdraw", withdrawPayload("1")))
	assertStatus(t, err, codes.Internal, "STATE_READ_FAILED")
}

func TestExecuteUnclassifiedErrorIsUnknown(t *testing.T) {
	f := newFixture(fakeGate{err: fmt.Errorf("boom")})

	_, err := f.svc.Execute(callerContext(testAdmin), mustExecuteRequest(t, "admin.withdraw", withdrawPayload("1")))
	assertStatus(t, err, codes.Internal, "UNKNOWN")
}

func TestExecuteOutboxFailure(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	f.outbox.err = errors.New(errors.CodeStorageWrite, "outbox full")

	_, err := f.svc.Execute(callerContext(testAdmin), mustExecuteRequest(t, "admin.withdraw", withdrawPayload("1")))
	assertStatus(t, err, codes.Unavailable, "STORAGE_WRITE_FAILED")
}

func TestListSubscriptionOptionsIsPublic(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	f.options.page = storage.OptionPage{
		Options:       []payment.Option{{SubscriptionDurationDays: 7, Price: coin.New("uatom", coin.NewAmount(10))}},
		NextPageToken: "next",
	}
	req, err := NewListRequest(ListRequest{Filter: `denom = "uatom"`, PageSize: 500})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	resp, err := f.svc.ListSubscriptionOptions(context.Background(), req)
	if err != nil {
		t.Fatalf("list options: %v", err)
	}
	if f.options.query.PageSize != maxPageSize {
		t.Fatalf("page size = %d, want %d", f.options.query.PageSize, maxPageSize)
	}
	if f.options.query.Filter.IsEmpty() {
		t.Fatal("expected filter condition")
	}
	if resp.GetFields()["next_page_token"].GetStringValue() != "next" {
		t.Fatalf("next token = %v", resp.GetFields()["next_page_token"])
	}
	options := resp.GetFields()["options"].GetListValue().GetValues()
	if len(options) != 1 {
		t.Fatalf("options = %d", len(options))
	}
	days := options[0].GetStructValue().GetFields()["subscription_duration_days"].GetNumberValue()
	if days != 7 {
		t.Fatalf("days = %v", days)
	}
}

func TestListSubscriptionOptionsDefaultsAndFilterErrors(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})

	if _, err := f.svc.ListSubscriptionOptions(context.Background(), &structpb.Struct{}); err != nil {
		t.Fatalf("list options: %v", err)
	}
	if f.options.query.PageSize != defaultPageSize {
		t.Fatalf("page size = %d, want %d", f.options.query.PageSize, defaultPageSize)
	}

	req, err := NewListRequest(ListRequest{Filter: `owner = "x"`})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	_, err = f.svc.ListSubscriptionOptions(context.Background(), req)
	assertStatus(t, err, codes.InvalidArgument, "FILTER_INVALID")
}

func TestListSettlementInstructionsRequiresAdmin(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	f.outbox.page = storage.InstructionPage{Entries: []storage.OutboxEntry{{ID: "entry-1", Status: storage.StatusPending}}}

	_, err := f.svc.ListSettlementInstructions(callerContext("mallory"), &structpb.Struct{})
	assertStatus(t, err, codes.PermissionDenied, "UNAUTHORIZED")

	_, err = f.svc.ListSettlementInstructions(context.Background(), &structpb.Struct{})
	assertStatus(t, err, codes.Unauthenticated, "CALLER_REQUIRED")

	resp, err := f.svc.ListSettlementInstructions(callerContext(testAdmin), &structpb.Struct{})
	if err != nil {
		t.Fatalf("list instructions: %v", err)
	}
	entries := resp.GetFields()["instructions"].GetListValue().GetValues()
	if len(entries) != 1 || entries[0].GetStructValue().GetFields()["id"].GetStringValue() != "entry-1" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestStatusErrorLocalizesMessage(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	ctx := requestctx.WithLocale(callerContext("mallory"), "pt-BR")

	_, err := f.svc.Execute(ctx, mustExecuteRequest(t, "admin.withdraw", withdrawPayload("1")))
	st, _ := status.FromError(err)
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			if msg.GetLocale() != "pt-BR" {
				t.Fatalf("locale = %q", msg.GetLocale())
			}
			if msg.GetMessage() == "" {
				t.Fatal("expected localized message")
			}
			return
		}
	}
	t.Fatal("missing LocalizedMessage detail")
}

func TestExecuteKeepsLargestExactDuration(t *testing.T) {
	f := newFixture(fakeGate{admin: testAdmin})
	req := mustExecuteRequest(t, "admin.subscription_option.add", map[string]any{"subscription_option": map[string]any{
		"subscription_duration_days": uint64(9007199254740991),
		"price":                      map[string]any{"denom": "uatom", "amount": "100"},
	}})

	if _, err := f.svc.Execute(callerContext(testAdmin), req); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(f.options.added) != 1 || f.options.added[0].SubscriptionDurationDays != 9007199254740991 {
		t.Fatalf("added = %+v", f.options.added)
	}
}

func TestListingsRejectMalformedPageTokens(t *testing.T) {
	store, err := subscriptionsqlite.Open(filepath.Join(t.TempDir(), "subscription.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	svc := NewService(Deps{
		Processor: engine.Processor{Gate: fakeGate{admin: testAdmin}, Options: store},
		Options:   store,
		Outbox:    store,
	})
	req, err := NewListRequest(ListRequest{PageToken: "not-a-token"})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	_, err = svc.ListSettlementInstructions(callerContext(testAdmin), req)
	assertStatus(t, err, codes.InvalidArgument, "PAGE_TOKEN_INVALID")

	_, err = svc.ListSubscriptionOptions(context.Background(), req)
	assertStatus(t, err, codes.InvalidArgument, "PAGE_TOKEN_INVALID")
}
