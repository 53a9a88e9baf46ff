package grpcserver

import (
	"context"
	"time"

	"github.com/rzbill/flosweep/internal/runtime"
	"github.com/rzbill/flosweep/pkg/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ExpiryService is the health service name reported for the sweep scheduler.
const ExpiryService = "flosweep.Expiry"

const probeInterval = 5 * time.Second

// healthProber keeps the standard health service in step with the runtime.
type healthProber struct {
	rt     *runtime.Runtime
	hs     *health.Server
	logger log.Logger
	last   healthpb.HealthCheckResponse_ServingStatus
}

func newHealthProber(rt *runtime.Runtime, logger log.Logger) *healthProber {
	return &healthProber{rt: rt, hs: health.NewServer(), logger: logger}
}

func (p *healthProber) probe(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	status := healthpb.HealthCheckResponse_SERVING
	if err := p.rt.CheckHealth(cctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if p.last != status {
			p.logger.Warn("health check failed", log.Err(err))
		}
	}
	p.last = status
	p.hs.SetServingStatus("", status)
	p.hs.SetServingStatus(ExpiryService, status)
}

func (p *healthProber) run(ctx context.Context) {
	t := time.NewTicker(probeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.probe(ctx)
		}
	}
}
