// Package runtime wires storage, config, cursors and expiry monitors into a
// single-node flosweep instance.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	rt.Start()
//	_, _ = rt.Publish(ctx, "default", "orders", 0, []byte("hello"), nil)
package runtime
