package serverrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/flosweep/internal/config"
	"github.com/rzbill/flosweep/internal/runtime"
	grpcserver "github.com/rzbill/flosweep/internal/server/grpc"
	httpserver "github.com/rzbill/flosweep/internal/server/http"
	logpkg "github.com/rzbill/flosweep/pkg/log"
)

// Overrides are command-line values applied on top of the file and
// environment. Empty fields leave the loaded value alone.
type Overrides struct {
	DataDir   string
	HTTPAddr  string
	GRPCAddr  string
	Fsync     string
	LogLevel  string
	LogFormat string
}

// LoadConfig resolves the server configuration: defaults, then the file at
// path (if any), then FLOSWEEP_* variables, then o. The result is validated.
func LoadConfig(path string, o Overrides) (cfgpkg.Config, error) {
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DataDir, o.DataDir)
	set(&cfg.HTTPAddr, o.HTTPAddr)
	set(&cfg.GRPCAddr, o.GRPCAddr)
	set(&cfg.Fsync, o.Fsync)
	set(&cfg.Log.Level, o.LogLevel)
	set(&cfg.Log.Format, o.LogFormat)
	if err := cfg.Validate(); err != nil {
		return cfgpkg.Config{}, err
	}
	return cfg, nil
}

// Run starts the runtime with its gRPC and HTTP servers and blocks until ctx
// is cancelled or a termination signal arrives.
func Run(ctx context.Context, cfg cfgpkg.Config) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procLogger, err := logpkg.ApplyConfig(&cfg.Log)
	if err != nil {
		return err
	}
	// Pebble logs through the standard library logger.
	logpkg.RedirectStdLog(procLogger)

	mode, err := cfg.FsyncMode()
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(cfg.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         mode,
		FsyncInterval: cfg.FsyncInterval(),
		Config:        cfg,
		Logger:        procLogger,
	})
	if err != nil {
		return fmt.Errorf("open runtime: %w", err)
	}
	defer rt.Close()

	procLogger.Info("Starting flosweep server",
		logpkg.Str("grpc", cfg.GRPCAddr),
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Str("data_dir", storeDir),
		logpkg.Str("fsync", mode.String()),
		logpkg.Int("subscriptions", len(cfg.Subscriptions)),
		logpkg.Dur("sweep_interval", cfg.Expiry.SweepInterval()),
		logpkg.Dur("rate_interval", cfg.Expiry.RateInterval()),
	)
	rt.Start()

	gsrv := grpcserver.New(rt, procLogger)
	hsrv := httpserver.New(rt, procLogger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := gsrv.ListenAndServe(sctx, cfg.GRPCAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("grpc server failed", logpkg.Err(err))
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, cfg.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			stop()
		}
	}()

	<-sctx.Done()
	// Stop the servers before the deferred runtime close releases the DB.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	procLogger.Info("flosweep server stopped")
	return nil
}
