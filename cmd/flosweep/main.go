package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clientcmd "github.com/rzbill/flosweep/internal/cmd/client"
	serverrun "github.com/rzbill/flosweep/internal/cmd/server"
	"github.com/spf13/cobra"
)

func main() {
	var addr string
	rootCmd := &cobra.Command{
		Use:          "flosweep",
		Short:        "flosweep message expiry runtime",
		Long:         "flosweep stores partitioned message logs and periodically advances each subscription's cursor past messages older than its TTL.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", envDefault("FLOSWEEP_HTTP", "http://127.0.0.1:8080"), "HTTP API base URL for client commands")

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start flosweep server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			var o serverrun.Overrides
			o.DataDir, _ = cmd.Flags().GetString("data-dir")
			o.HTTPAddr, _ = cmd.Flags().GetString("http")
			o.GRPCAddr, _ = cmd.Flags().GetString("grpc")
			o.Fsync, _ = cmd.Flags().GetString("fsync")
			o.LogLevel, _ = cmd.Flags().GetString("log-level")
			o.LogFormat, _ = cmd.Flags().GetString("log-format")

			cfg, err := serverrun.LoadConfig(path, o)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, cfg); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("FLOSWEEP_CONFIG"), "Config file (.yaml, .yml or .json)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("grpc", "", "gRPC listen address (default :9090)")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, func() string { return addr })

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
