package server

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer returns a server exposing the standard health service and
// reflection. The overall status starts NOT_SERVING until WatchHealth runs.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

// WatchHealth pings db every interval and mirrors the result into hs until
// ctx is cancelled, then marks the service NOT_SERVING.
func WatchHealth(ctx context.Context, hs *health.Server, db Pinger, interval time.Duration, log logger.ZapLogger) {
	last := healthpb.HealthCheckResponse_UNKNOWN
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err := db.PingContext(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if last != status {
				log.Error("Database health check failed", zap.Error(err))
			}
		}
		if status != last {
			hs.SetServingStatus("", status)
			last = status
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	check()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			check()
		}
	}
}
