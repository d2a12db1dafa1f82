// Package subscription parses subscription service flags and launches the service.
package subscription

import (
	"context"
	"flag"
	"strings"

	entrypoint "github.com/fruitbox12/Subscription/internal/platform/cmd"
	server "github.com/fruitbox12/Subscription/internal/services/subscription/app"
)

// Config holds subscription command configuration.
type Config struct {
	Port int    `env:"SUBSCRIPTION_PORT" envDefault:"8095"`
	Addr string `env:"SUBSCRIPTION_ADDR"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The subscription gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The subscription gRPC listen address (overrides -port)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	return cfg, nil
}

// Run starts the subscription gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSubscription, func(ctx context.Context) error {
		if cfg.Addr != "" {
			return server.RunWithAddr(ctx, cfg.Addr)
		}
		return server.Run(ctx, cfg.Port)
	})
}
