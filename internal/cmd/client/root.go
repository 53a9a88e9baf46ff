package client

import (
	"net/http"
	"time"

	transports "github.com/rzbill/flosweep/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

var httpClient = &http.Client{Timeout: 30 * time.Second}

func getTransport(baseURL BaseURLFunc) transports.AdminTransport {
	return transports.NewHTTPTransport(baseURL(), httpClient)
}

// AddCommands registers the client command groups on root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewSubscriptionsCommand(baseURL),
		NewPublishCommand(baseURL),
		NewBacklogCommand(baseURL),
		NewHealthCommand(),
	)
}

// NewRoot constructs a root Cobra command holding only the client commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "flosweep",
		Short: "flosweep client commands",
	}
	AddCommands(root, baseURL)
	return root
}
