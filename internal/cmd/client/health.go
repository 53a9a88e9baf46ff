package client

import (
	"fmt"

	transports "github.com/rzbill/flosweep/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewHealthCommand constructs the `health` command, which queries the gRPC
// health service at FLOSWEEP_GRPC.
func NewHealthCommand() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _ := cmd.Flags().GetString("service")
			status, err := transports.NewGrpcTransport(dialGRPCContext).Check(cmd.Context(), service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", status)
			return nil
		},
	}
	healthCmd.Flags().String("service", "", "Health service name (empty = server)")
	return healthCmd
}
