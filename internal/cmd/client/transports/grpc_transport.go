package transports

import (
	"context"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DialFunc opens a client connection to the gRPC endpoint.
type DialFunc func(ctx context.Context) (*grpc.ClientConn, error)

// GrpcTransport checks health over the standard gRPC health service.
type GrpcTransport struct {
	dial DialFunc
}

// NewGrpcTransport returns a health transport using dial.
func NewGrpcTransport(dial DialFunc) *GrpcTransport { return &GrpcTransport{dial: dial} }

// Check returns the serving status of service ("" for the whole server).
func (t *GrpcTransport) Check(ctx context.Context, service string) (string, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return "", err
	}
	return res.GetStatus().String(), nil
}
