package commands

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewProcessesCommand creates the processes command group.
func NewProcessesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processes",
		Short: "Monitor long-running repository processes",
	}

	cmd.AddCommand(newProcessesGetCommand())
	cmd.AddCommand(newProcessesMessagesCommand())

	return cmd
}

func newProcessesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one monitored process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			process, err := client.ProcessMonitor().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			handled, err := renderStructured(process)
			if handled || err != nil {
				return err
			}

			return renderTable(
				[]string{"Property", "Value"},
				[][]string{
					{"ID", process.ID},
					{"Category", process.Category},
					{"Status", process.Status},
					{"Progress", strconv.Itoa(process.Progress)},
				},
			)
		},
	}
}

func newProcessesMessagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "messages ID",
		Short: "List the messages emitted by a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			messages, err := client.ProcessMonitor().Messages(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			handled, err := renderStructured(messages)
			if handled || err != nil {
				return err
			}

			rows := make([][]string, 0, len(messages))
			for _, message := range messages {
				rows = append(rows, []string{
					strconv.Itoa(message.Sequence),
					message.Level,
					message.Message,
				})
			}

			return renderTable([]string{"Seq", "Level", "Message"}, rows)
		},
	}
}
