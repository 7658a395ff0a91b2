package commands

import (
	"github.com/preservio/papi/pkg/papi"
	"github.com/spf13/cobra"
)

// NewWorkflowsCommand creates the workflows command group.
func NewWorkflowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Start repository workflows",
	}

	cmd.AddCommand(newWorkflowsStartCommand())

	return cmd
}

func newWorkflowsStartCommand() *cobra.Command {
	var (
		contextID     string
		contextName   string
		correlationID string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a workflow by context ID or context name",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			instance, err := client.Workflows().Start(cmd.Context(), &papi.StartWorkflowRequest{
				ContextID:     contextID,
				ContextName:   contextName,
				CorrelationID: correlationID,
			})
			if err != nil {
				return err
			}

			handled, err := renderStructured(instance)
			if handled || err != nil {
				return err
			}

			return renderTable(
				[]string{"Property", "Value"},
				[][]string{
					{"ID", instance.ID},
					{"State", instance.State},
					{"Correlation ID", instance.CorrelationID},
				},
			)
		},
	}

	cmd.Flags().StringVar(&contextID, "context-id", "", "workflow context ID")
	cmd.Flags().StringVar(&contextName, "context-name", "", "workflow context name")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "correlation ID recorded on the instance")

	return cmd
}
