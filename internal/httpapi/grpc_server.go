package httpapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"oceanos.org/internal/obs"
)

const serviceName = "oceanos-api"

// NewGRPCServer builds a gRPC server exposing the standard health
// service for platform probes. The returned stop function ends the
// readiness watcher.
func NewGRPCServer(rp ReadyProbe, opts ...grpc.ServerOption) (*grpc.Server, func()) {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		update := func() {
			checkCtx, checkCancel := context.WithTimeout(ctx, 3*time.Second)
			defer checkCancel()
			status := healthpb.HealthCheckResponse_SERVING
			ready := true
			if err := rp.Check(checkCtx); err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
				ready = false
			}
			hs.SetServingStatus(serviceName, status)
			hs.SetServingStatus("", status)
			obs.SetReady(ready)
		}
		update()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()

	return srv, cancel
}
