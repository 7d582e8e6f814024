package client

import (
	"fmt"

	transports "github.com/rzbill/serialflo/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewStreamCommand constructs the `stream` command group and subcommands.
func NewStreamCommand(baseURL BaseURLFunc) *cobra.Command {
	streamCmd := &cobra.Command{Use: "stream", Short: "Stream and consumer group operations"}
	streamCmd.AddCommand(
		newStreamCountCommand(baseURL),
		newStreamPendingCommand(baseURL),
		newStreamReclaimCommand(baseURL),
		newStreamAckCommand(baseURL),
	)
	return streamCmd
}

func newStreamCountCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of entries in the stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := getTransport(baseURL).Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newStreamPendingCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List delivered but unacknowledged entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt64("limit")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			idle, _ := cmd.Flags().GetInt64("idle-ms")
			items, err := getTransport(baseURL).Pending(cmd.Context(), transports.PendingRequest{
				Limit: limit, From: from, To: to, IdleMs: idle,
			})
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := printJSON(cmd.OutOrStdout(), it); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64("limit", 100, "Maximum entries to list")
	cmd.Flags().String("from", "", "Lowest entry id (default -)")
	cmd.Flags().String("to", "", "Highest entry id (default +)")
	cmd.Flags().Int64("idle-ms", 0, "Only entries idle at least this long")
	return cmd
}

func newStreamReclaimCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "Acknowledge pending entries idle longer than --idle-ms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			idle, _ := cmd.Flags().GetInt64("idle-ms")
			if idle < 0 {
				return fmt.Errorf("--idle-ms must not be negative")
			}
			n, err := getTransport(baseURL).Reclaim(cmd.Context(), idle)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reclaimed: %d\n", n)
			return nil
		},
	}
	cmd.Flags().Int64("idle-ms", 300_000, "Idle threshold in milliseconds")
	return cmd
}

func newStreamAckCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge one entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			n, err := getTransport(baseURL).Ack(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "acked: %d\n", n)
			return nil
		},
	}
	cmd.Flags().String("id", "", "Entry id (ms-seq)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
