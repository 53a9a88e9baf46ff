package client

import (
	"fmt"

	transports "github.com/rzbill/flosweep/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewPublishCommand constructs the `publish` command.
func NewPublishCommand(baseURL BaseURLFunc) *cobra.Command {
	pubCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			topic, _ := cmd.Flags().GetString("topic")
			part, _ := cmd.Flags().GetUint32("partition")
			data, _ := cmd.Flags().GetString("data")
			kvs, _ := cmd.Flags().GetStringArray("prop")
			props, err := parseProps(kvs)
			if err != nil {
				return err
			}
			seq, err := getTransport(baseURL).Publish(cmd.Context(), transports.PublishRequest{
				Namespace:  ns,
				Topic:      topic,
				Partition:  part,
				Payload:    []byte(data),
				Properties: props,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sequence:", seq)
			return nil
		},
	}
	pubCmd.Flags().StringP("namespace", "n", "default", "Namespace")
	pubCmd.Flags().String("topic", "", "Topic")
	pubCmd.Flags().Uint32("partition", 0, "Partition")
	pubCmd.Flags().String("data", "", "Payload")
	pubCmd.Flags().StringArray("prop", nil, "Message property key=value (repeatable)")
	return pubCmd
}
