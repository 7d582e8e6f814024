package client

import (
	"fmt"

	transports "github.com/rzbill/serialflo/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewTriggerCommand constructs the `trigger` command.
func NewTriggerCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Append a payload to a key's ordered list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			payload, _ := cmd.Flags().GetString("payload")
			ttl, _ := cmd.Flags().GetInt("ttl-sec")
			suffix, _ := cmd.Flags().GetString("suffix")
			typ, _ := cmd.Flags().GetString("type")
			if ttl < 0 {
				return fmt.Errorf("--ttl-sec must not be negative")
			}
			published, err := getTransport(baseURL).Trigger(cmd.Context(), transports.TriggerRequest{
				Key:               key,
				Payload:           payload,
				TTLSec:            ttl,
				CorrelationSuffix: suffix,
				Type:              typ,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published: %t\n", published)
			return nil
		},
	}
	cmd.Flags().String("key", "", "Business key; empty publishes the payload directly")
	cmd.Flags().String("payload", "", "Payload to append")
	cmd.Flags().Int("ttl-sec", 0, "List and token TTL in seconds (0 uses the server default)")
	cmd.Flags().String("suffix", "", "Correlation id suffix")
	cmd.Flags().String("type", "", "FIFO or LIFO (empty uses the server default)")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}
