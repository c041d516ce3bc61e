package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service key the worker reports under.
const ServiceName = "docassist.Worker"

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// Health serves the standard gRPC health protocol. Status follows the database probe.
type Health struct {
	srv    *grpc.Server
	hs     *health.Server
	lis    net.Listener
	probe  Pinger
	every  time.Duration
	logger *slog.Logger
}

// NewHealth listens on addr. probe may be nil, in which case the worker is always serving.
func NewHealth(addr string, probe Pinger, every time.Duration, logger *slog.Logger) (*Health, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if every <= 0 {
		every = 15 * time.Second
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	// Reflection for grpcurl
	reflection.Register(srv)

	return &Health{srv: srv, hs: hs, lis: lis, probe: probe, every: every, logger: logger}, nil
}

// Addr is the bound listen address.
func (h *Health) Addr() string { return h.lis.Addr().String() }

// Serve blocks until ctx is done, then stops gracefully.
func (h *Health) Serve(ctx context.Context) error {
	h.check(ctx)
	go h.watch(ctx)

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("grpc.health.serving", "addr", h.Addr())
		errCh <- h.srv.Serve(h.lis)
	}()

	select {
	case <-ctx.Done():
		h.hs.Shutdown()
		h.srv.GracefulStop()
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (h *Health) watch(ctx context.Context) {
	t := time.NewTicker(h.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.check(ctx)
		}
	}
}

func (h *Health) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if h.probe != nil {
		if err := h.probe(ctx); err != nil {
			h.logger.Warn("grpc.health.not_serving", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.hs.SetServingStatus("", status)
	h.hs.SetServingStatus(ServiceName, status)
}
