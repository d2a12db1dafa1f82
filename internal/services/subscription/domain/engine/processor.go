package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/coin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/command"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/payment"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/settlement"
)

// SpanName names the span opened for every execution.
const SpanName = "subscription.admin.execute"

// State is a processor state. Terminal states are reported in Result.
type State string

const (
	StateReceived         State = "received"
	StateRejected         State = "rejected"
	StateAuthorized       State = "authorized"
	StateWithdrawExecuted State = "withdraw_executed"
	StateOptionAdded      State = "option_added"
	StateOptionRemoved    State = "option_removed"
	StateFailed           State = "failed"
)

// Authorizer decides whether a caller may run admin commands.
type Authorizer interface {
	IsAuthorized(ctx context.Context, caller principal.ID) (bool, error)
}

// OptionWriter mutates the set of offered payment options.
type OptionWriter interface {
	AddSubscriptionOption(ctx context.Context, option payment.Option) error
	RemoveSubscriptionOption(ctx context.Context, option payment.Option) error
}

// Result is the outcome of a successful execution.
type Result struct {
	State        State
	Instructions []settlement.Instruction
}

// Processor executes admin commands.
type Processor struct {
	Gate    Authorizer
	Options OptionWriter
	Tracer  trace.Tracer
}

// Execute authorizes caller and runs cmd. On error the returned Result holds
// the state the processor stopped in and no instructions.
func (p Processor) Execute(ctx context.Context, caller principal.ID, cmd command.Command) (Result, error) {
	tracer := p.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	ctx, span := tracer.Start(ctx, SpanName)
	defer span.End()

	result, err := p.execute(ctx, caller, cmd)
	if cmd != nil {
		span.SetAttributes(attribute.String("command.type", string(cmd.CommandType())))
	}
	span.SetAttributes(
		attribute.String("command.state", string(result.State)),
		attribute.Int("command.instructions", len(result.Instructions)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(errors.CodeOf(err)))
	}
	return result, err
}

func (p Processor) execute(ctx context.Context, caller principal.ID, cmd command.Command) (Result, error) {
	if p.Gate == nil {
		return Result{State: StateReceived}, errors.New(errors.CodeStateRead, "authorization gate is not configured")
	}
	ok, err := p.Gate.IsAuthorized(ctx, caller)
	if err != nil {
		return Result{State: StateReceived}, err
	}
	if !ok {
		return Result{State: StateRejected}, errors.New(errors.CodeUnauthorized,
			fmt.Sprintf("caller %q is not the contract admin", caller))
	}

	switch c := cmd.(type) {
	case command.Withdraw:
		return withdraw(c)
	case command.AddSubscriptionOption:
		if err := p.optionWriter().AddSubscriptionOption(ctx, c.Option); err != nil {
			return Result{State: StateFailed}, err
		}
		return Result{State: StateOptionAdded}, nil
	case command.RemoveSubscriptionOption:
		if err := p.optionWriter().RemoveSubscriptionOption(ctx, c.Option); err != nil {
			return Result{State: StateFailed}, err
		}
		return Result{State: StateOptionRemoved}, nil
	default:
		return Result{State: StateFailed}, errors.New(errors.CodeCommandTypeUnknown, fmt.Sprintf("unsupported command %T", cmd))
	}
}

// Empty denoms, zero amounts and any beneficiary pass through unchecked.
func withdraw(c command.Withdraw) (Result, error) {
	amount, err := coin.ParseAmount(c.Amount)
	if err != nil {
		return Result{State: StateFailed}, command.InvalidAmountError(err)
	}
	return Result{
		State:        StateWithdrawExecuted,
		Instructions: []settlement.Instruction{settlement.BankSend(c.Beneficiary, coin.New(c.Denom, amount))},
	}, nil
}

func (p Processor) optionWriter() OptionWriter {
	if p.Options == nil {
		return unconfiguredOptions{}
	}
	return p.Options
}

type unconfiguredOptions struct{}

func (unconfiguredOptions) AddSubscriptionOption(context.Context, payment.Option) error {
	return errors.New(errors.CodeStorageWrite, "option store is not configured")
}

func (unconfiguredOptions) RemoveSubscriptionOption(context.Context, payment.Option) error {
	return errors.New(errors.CodeStorageWrite, "option store is not configured")
}
