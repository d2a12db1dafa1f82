// Package subscriptionctl implements the subscription admin CLI.
package subscriptionctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	entrypoint "github.com/fruitbox12/Subscription/internal/platform/cmd"
	platformgrpc "github.com/fruitbox12/Subscription/internal/platform/grpc"
	"github.com/fruitbox12/Subscription/internal/platform/timeouts"
	"github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/admin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/callergrant"
	grpcmeta "github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/metadata"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/command"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
)

// Config holds connection settings shared by every subcommand.
type Config struct {
	Addr           string        `env:"SUBSCRIPTION_CTL_ADDR" envDefault:"localhost:8095"`
	Caller         string        `env:"SUBSCRIPTION_CTL_CALLER"`
	DialTimeout    time.Duration `env:"SUBSCRIPTION_CTL_DIAL_TIMEOUT"`
	RequestTimeout time.Duration `env:"SUBSCRIPTION_CTL_REQUEST_TIMEOUT"`
}

// Invocation is one parsed subcommand ready to be sent.
type Invocation struct {
	Name    string
	Method  string
	Request *structpb.Struct
}

// maxDurationDays is the largest duration the JSON request document carries
// exactly.
const maxDurationDays = 1<<53 - 1

const usage = `usage: subscriptionctl [flags] <command> [command flags]

commands:
  withdraw           -denom D -amount N -to ADDRESS
  add-option         -days N -amount N -denom D
  remove-option      -days N -amount N -denom D
  list-options       [-filter F] [-page-size N] [-page-token T]
  list-instructions  [-filter F] [-page-size N] [-page-token T]
`

// ParseConfig parses environment and global flags into Config. The remaining
// arguments name the subcommand.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, nil, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "subscription gRPC server address")
	fs.StringVar(&cfg.Caller, "caller", cfg.Caller, "caller identity sent with each request")
	fs.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "time to wait for the server to become healthy")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, nil, err
	}
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.Caller = strings.TrimSpace(cfg.Caller)
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = timeouts.GRPCDial
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = timeouts.GRPCRequest
	}
	return cfg, fs.Args(), nil
}

// ParseInvocation turns subcommand arguments into a request.
func ParseInvocation(args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{}, errors.New("command is required\n" + usage)
	}
	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch name {
	case "withdraw":
		denom := fs.String("denom", "", "coin denomination")
		amount := fs.String("amount", "", "amount in base units")
		to := fs.String("to", "", "beneficiary address")
		if err := fs.Parse(rest); err != nil {
			return Invocation{}, fmt.Errorf("%s: %w", name, err)
		}
		if strings.TrimSpace(*amount) == "" || strings.TrimSpace(*to) == "" {
			return Invocation{}, fmt.Errorf("%s: -amount and -to are required", name)
		}
		return executeInvocation(name, command.TypeWithdraw, map[string]any{
			"denom":       *denom,
			"amount":      *amount,
			"beneficiary": *to,
		})
	case "add-option", "remove-option":
		days := fs.Uint64("days", 0, "subscription duration in days")
		amount := fs.String("amount", "", "price amount in base units")
		denom := fs.String("denom", "", "price denomination")
		if err := fs.Parse(rest); err != nil {
			return Invocation{}, fmt.Errorf("%s: %w", name, err)
		}
		if *days > maxDurationDays {
			return Invocation{}, fmt.Errorf("%s: -days must be at most %d", name, uint64(maxDurationDays))
		}
		cmdType := command.TypeAddSubscriptionOption
		if name == "remove-option" {
			cmdType = command.TypeRemoveSubscriptionOption
		}
		return executeInvocation(name, cmdType, map[string]any{
			"subscription_option": map[string]any{
				"subscription_duration_days": *days,
				"price":                      map[string]any{"denom": *denom, "amount": *amount},
			},
		})
	case "list-options", "list-instructions":
		var req admin.ListRequest
		fs.StringVar(&req.Filter, "filter", "", "AIP-160 filter expression")
		fs.IntVar(&req.PageSize, "page-size", 0, "maximum entries per page")
		fs.StringVar(&req.PageToken, "page-token", "", "token from a previous page")
		if err := fs.Parse(rest); err != nil {
			return Invocation{}, fmt.Errorf("%s: %w", name, err)
		}
		method := admin.ListSubscriptionOptionsMethod
		if name == "list-instructions" {
			method = admin.ListSettlementInstructionsMethod
		}
		in, err := admin.NewListRequest(req)
		if err != nil {
			return Invocation{}, fmt.Errorf("%s: %w", name, err)
		}
		return Invocation{Name: name, Method: method, Request: in}, nil
	default:
		return Invocation{}, fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func executeInvocation(name string, cmdType command.Type, payload map[string]any) (Invocation, error) {
	in, err := admin.NewExecuteRequest(string(cmdType), payload)
	if err != nil {
		return Invocation{}, fmt.Errorf("%s: %w", name, err)
	}
	return Invocation{Name: name, Method: admin.ExecuteMethod, Request: in}, nil
}

// Run sends inv to the server and writes the response as JSON.
func Run(ctx context.Context, cfg Config, inv Invocation, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	if inv.Request == nil {
		return errors.New("request is required")
	}
	signer, err := callergrant.LoadSignerConfigFromEnv()
	if err != nil {
		return err
	}
	ctx, err = withCaller(ctx, cfg.Caller, signer)
	if err != nil {
		return err
	}

	conn, err := platformgrpc.DialWithHealth(ctx, nil, cfg.Addr, admin.ServiceName, cfg.DialTimeout, log.Printf)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("close connection: %v", closeErr)
		}
	}()

	resp, err := invoke(ctx, admin.NewClient(conn), inv, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("%s: %w", inv.Name, err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func invoke(ctx context.Context, client *admin.Client, inv Invocation, timeout time.Duration) (*structpb.Struct, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var call func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)
	switch inv.Method {
	case admin.ExecuteMethod:
		call = client.Execute
	case admin.ListSubscriptionOptionsMethod:
		call = client.ListSubscriptionOptions
	case admin.ListSettlementInstructionsMethod:
		call = client.ListSettlementInstructions
	default:
		return nil, fmt.Errorf("unsupported method %q", inv.Method)
	}
	return call(ctx, inv.Request)
}

// withCaller attaches caller identity to outgoing metadata. A configured
// signer takes precedence over the plain caller header.
func withCaller(ctx context.Context, caller string, signer callergrant.SignerConfig) (context.Context, error) {
	if caller == "" {
		return ctx, nil
	}
	if signer.Enabled() {
		grant, err := callergrant.Sign(signer, principal.ID(caller))
		if err != nil {
			return nil, fmt.Errorf("sign caller grant: %w", err)
		}
		return grpcmeta.OutgoingGrant(ctx, grant), nil
	}
	return grpcmeta.OutgoingCaller(ctx, caller), nil
}
