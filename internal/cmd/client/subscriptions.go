package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSubscriptionsCommand constructs the `subs` command group.
func NewSubscriptionsCommand(baseURL BaseURLFunc) *cobra.Command {
	subsCmd := &cobra.Command{Use: "subs", Aliases: []string{"subscriptions"}, Short: "Subscription expiry operations"}
	subsCmd.AddCommand(
		newSubsListCommand(baseURL),
		newSubsExpireCommand(baseURL),
		newSubsRatesCommand(baseURL),
		newSubsAckCommand(baseURL),
		newSubsAddCommand(baseURL),
		newSubsRemoveCommand(baseURL),
	)
	return subsCmd
}

func newSubsListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subscriptions with their expiry state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := getTransport(baseURL).ListSubscriptions(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(subs)
		},
	}
}

func newSubsExpireCommand(baseURL BaseURLFunc) *cobra.Command {
	expireCmd := &cobra.Command{
		Use:   "expire",
		Short: "Run one expiry check now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			ttl, _ := cmd.Flags().GetInt("ttl")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			started, err := getTransport(baseURL).Expire(cmd.Context(), key, ttl)
			if err != nil {
				return err
			}
			if !started {
				fmt.Fprintln(cmd.OutOrStdout(), "expiry check already in progress for", key)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "expiry check started for", key)
			return nil
		},
	}
	expireCmd.Flags().String("key", "", "Subscription key namespace/topic/partition/name")
	expireCmd.Flags().Int("ttl", 0, "TTL in seconds (0 = subscription default)")
	return expireCmd
}

func newSubsRatesCommand(baseURL BaseURLFunc) *cobra.Command {
	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "Close the current rate window and print expiry rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			rates, err := getTransport(baseURL).UpdateRates(cmd.Context(), key)
			if err != nil {
				return err
			}
			for _, r := range rates {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.3f msg/s\n", r.Key, r.ExpiryRate)
			}
			return nil
		},
	}
	ratesCmd.Flags().String("key", "", "Subscription key (empty = all)")
	return ratesCmd
}

func newSubsAckCommand(baseURL BaseURLFunc) *cobra.Command {
	ackCmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge every message up to a sequence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			seq, _ := cmd.Flags().GetUint64("sequence")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if err := getTransport(baseURL).Ack(cmd.Context(), key, seq); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "acknowledged", key, "through", seq)
			return nil
		},
	}
	ackCmd.Flags().String("key", "", "Subscription key namespace/topic/partition/name")
	ackCmd.Flags().Uint64("sequence", 0, "Sequence to acknowledge through")
	return ackCmd
}

func newSubsAddCommand(baseURL BaseURLFunc) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a subscription for expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			ttl, _ := cmd.Flags().GetInt("ttl")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			st, err := getTransport(baseURL).AddSubscription(cmd.Context(), key, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s ttl=%ds backlog=%d\n", st.Key, st.TTLSeconds, st.Backlog)
			return nil
		},
	}
	addCmd.Flags().String("key", "", "Subscription key namespace/topic/partition/name")
	addCmd.Flags().Int("ttl", 0, "TTL in seconds (0 = server default)")
	return addCmd
}

func newSubsRemoveCommand(baseURL BaseURLFunc) *cobra.Command {
	rmCmd := &cobra.Command{
		Use:   "remove",
		Short: "Stop sweeping a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if err := getTransport(baseURL).RemoveSubscription(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed", key)
			return nil
		},
	}
	rmCmd.Flags().String("key", "", "Subscription key namespace/topic/partition/name")
	return rmCmd
}
