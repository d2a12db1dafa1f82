// Package server wires the subscription runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fruitbox12/Subscription/internal/platform/config"
	"github.com/fruitbox12/Subscription/internal/platform/otel"
	"github.com/fruitbox12/Subscription/internal/platform/timeouts"
	"github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/admin"
	"github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/callergrant"
	grpcmeta "github.com/fruitbox12/Subscription/internal/services/subscription/api/grpc/metadata"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/authz"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/command"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/engine"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
	"github.com/fruitbox12/Subscription/internal/services/subscription/observability/audit"
	subscriptionsqlite "github.com/fruitbox12/Subscription/internal/services/subscription/storage/sqlite"
)

type serverEnv struct {
	DBPath          string `env:"SUBSCRIPTION_DB_PATH"`
	ContractAdmin   string `env:"SUBSCRIPTION_CONTRACT_ADMIN"`
	ContractAddress string `env:"SUBSCRIPTION_CONTRACT_ADDRESS"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "subscription.db")
	}
	cfg.ContractAdmin = strings.TrimSpace(cfg.ContractAdmin)
	cfg.ContractAddress = strings.TrimSpace(cfg.ContractAddress)
	return cfg, nil
}

// Server hosts the subscription gRPC API and storage lifecycle.
type Server struct {
	listener        net.Listener
	grpcServer      *grpc.Server
	health          *health.Server
	store           *subscriptionsqlite.Store
	contractAddress string
}

// New creates a configured subscription server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured subscription server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	env, err := loadServerEnv()
	if err != nil {
		return nil, fmt.Errorf("load server env: %w", err)
	}
	grants, err := callergrant.LoadVerifierConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}

	logCallerIdentityMode(grants)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := openSubscriptionStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	if err := bootstrapContractAdmin(store, principal.ID(env.ContractAdmin)); err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	gate := authz.NewGate(store)
	apiService := admin.NewService(admin.Deps{
		Registry: command.NewAdminRegistry(),
		Processor: engine.Processor{
			Gate:    gate,
			Options: store,
			Tracer:  otel.Tracer(),
		},
		Options: store,
		Outbox:  store,
		Audit:   audit.NewEmitter(store),
		Grants:  grants,
	})

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcmeta.UnaryServerInterceptor(nil)),
	)
	healthServer := health.NewServer()
	admin.RegisterAdminServiceServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(admin.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:        listener,
		grpcServer:      grpcServer,
		health:          healthServer,
		store:           store,
		contractAddress: env.ContractAddress,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a subscription server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// RunWithAddr creates and serves a subscription server on addr until context
// cancellation.
func RunWithAddr(ctx context.Context, addr string) error {
	server, err := NewWithAddr(addr)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	if s.contractAddress != "" {
		log.Printf("subscription server listening at %v for contract %s", s.listener.Addr(), s.contractAddress)
	} else {
		log.Printf("subscription server listening at %v", s.listener.Addr())
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases subscription server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close subscription store: %v", err)
		}
	}
}

func openSubscriptionStore(path string) (*subscriptionsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := subscriptionsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subscription sqlite store: %w", err)
	}
	return store, nil
}

// bootstrapContractAdmin records the configured admin when none is stored. An
// existing admin is never replaced.
func bootstrapContractAdmin(store *subscriptionsqlite.Store, adminID principal.ID) error {
	if adminID.IsZero() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.StorageOpen)
	defer cancel()
	set, err := store.SetContractAdminIfUnset(ctx, adminID)
	if err != nil {
		return fmt.Errorf("bootstrap contract admin: %w", err)
	}
	if set {
		log.Printf("contract admin set to %s", adminID)
		return nil
	}
	current, err := store.GetContractAdmin(ctx)
	if err != nil {
		return fmt.Errorf("read contract admin: %w", err)
	}
	if current != adminID {
		log.Printf("contract admin already set to %s; ignoring SUBSCRIPTION_CONTRACT_ADMIN", current)
	}
	return nil
}

// logCallerIdentityMode warns when callers are identified by an unverified
// header, since any client can then claim to be the contract admin.
func logCallerIdentityMode(grants callergrant.VerifierConfig) {
	if grants.Enabled() {
		log.Printf("caller grants enabled for issuer %s", grants.Issuer)
		return
	}
	log.Printf("WARNING: caller grants are not configured; trusting %s header as given. Set SUBSCRIPTION_CALLER_GRANT_ISSUER, SUBSCRIPTION_CALLER_GRANT_AUDIENCE and SUBSCRIPTION_CALLER_GRANT_PUBLIC_KEY to require signed grants", grpcmeta.CallerHeader)
}
