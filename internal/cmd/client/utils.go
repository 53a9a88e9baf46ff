package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcAddrFromEnv returns the gRPC server address from FLOSWEEP_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("FLOSWEEP_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:9090"
}

// dialGRPCContext dials the gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// parseProps turns repeated key=value flags into a map.
func parseProps(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --prop %q; expected key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

// decodedPayload returns one of payload_json, payload_text, or payload_b64.
func decodedPayload(payload []byte) (string, any) {
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		var v any
		if json.Unmarshal(payload, &v) == nil {
			return "payload_json", v
		}
	}
	if utf8.Valid(payload) {
		return "payload_text", string(payload)
	}
	return "payload_b64", base64.StdEncoding.EncodeToString(payload)
}
