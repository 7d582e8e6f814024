package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the serialflo client.
// It registers the trigger command and the stream command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "serialflo",
		Short: "serialflo client commands",
	}
	root.AddCommand(NewTriggerCommand(baseURL))
	root.AddCommand(NewStreamCommand(baseURL))
	return root
}
