// Package serverrun exposes the shared Run entrypoint used by the CLI to
// start the flosweep runtime with its gRPC and HTTP servers, handling
// configuration layering, lifecycle and shutdown.
//
// Example:
//
//	cfg, err := serverrun.LoadConfig("flosweep.yaml", serverrun.Overrides{HTTPAddr: ":8080"})
//	if err != nil {
//		return err
//	}
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, cfg)
package serverrun
