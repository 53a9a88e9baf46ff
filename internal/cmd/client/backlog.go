package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewBacklogCommand constructs the `backlog` command, which prints one JSON
// line per unacknowledged message.
func NewBacklogCommand(baseURL BaseURLFunc) *cobra.Command {
	backlogCmd := &cobra.Command{
		Use:   "backlog",
		Short: "List unacknowledged messages of a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			limit, _ := cmd.Flags().GetInt("limit")
			filter, _ := cmd.Flags().GetString("filter")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			bl, err := getTransport(baseURL).Backlog(cmd.Context(), key, limit, filter)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, m := range bl.Items {
				out := map[string]any{
					"sequence":     m.Sequence,
					"publish_time": m.PublishTime,
				}
				if len(m.Properties) > 0 {
					out["properties"] = m.Properties
				}
				k, v := decodedPayload(m.Payload)
				out[k] = v
				if err := enc.Encode(out); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "backlog: %d\n", bl.Backlog)
			return nil
		},
	}
	backlogCmd.Flags().String("key", "", "Subscription key namespace/topic/partition/name")
	backlogCmd.Flags().Int("limit", 0, "Max messages (0 = server default)")
	backlogCmd.Flags().String("filter", "", "CEL filter (server-side)")
	return backlogCmd
}
