package service

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DefaultProbeInterval is how often GRPCHealth re-checks the store.
const DefaultProbeInterval = 15 * time.Second

// GRPCHealth exposes the standard gRPC health service on addr. The overall
// status follows the store ping.
type GRPCHealth struct {
	addr     string
	repo     Pinger
	interval time.Duration
	health   *health.Server
	logger   *slog.Logger
}

// NewGRPCHealth creates a gRPC health service.
func NewGRPCHealth(addr string, repo Pinger, logger *slog.Logger) *GRPCHealth {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHealth{
		addr:     addr,
		repo:     repo,
		interval: DefaultProbeInterval,
		health:   health.NewServer(),
		logger:   logger,
	}
}

// Name implements Service.
func (g *GRPCHealth) Name() string { return "grpc health" }

// Run listens on the configured address.
func (g *GRPCHealth) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.addr)
	if err != nil {
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve answers health checks on ln until ctx is done.
func (g *GRPCHealth) Serve(ctx context.Context, ln net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, g.health)
	g.probe(ctx)

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("gRPC health listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			g.probe(ctx)
		case <-ctx.Done():
			g.health.Shutdown()
			srv.GracefulStop()
			return nil
		}
	}
}

func (g *GRPCHealth) probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := g.repo.Ping(pingCtx); err != nil {
		g.logger.Warn("Store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
}
