// Package client provides the flosweep command-line client.
//
// The CLI talks to the flosweep HTTP API for subscription and message
// operations and to the gRPC health service for liveness checks.
//
// # Address configuration
//
// The HTTP base URL comes from the embedding application through a
// BaseURLFunc; the standalone binary reads FLOSWEEP_HTTP or --addr and
// defaults to http://127.0.0.1:8080. The gRPC address is read from
// FLOSWEEP_GRPC (default 127.0.0.1:9090).
//
// Usage
//
//	flosweep subs list
//	flosweep subs expire --key default/orders/0/billing --ttl 60
//	flosweep subs rates
//	flosweep subs ack --key default/orders/0/billing --sequence 42
//
//	flosweep publish --topic orders --data '{"amount":12}' --prop tenant=acme
//
//	flosweep backlog --key default/orders/0/billing --limit 10 \
//	    --filter 'properties["tenant"] == "acme"'
//
//	flosweep health
package client
