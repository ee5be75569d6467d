package rows

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
)

// NewRegenerateCommand creates the regenerate command.
func NewRegenerateCommand(app application.Application) *cobra.Command {
	var descriptor string

	cmd := &cobra.Command{
		Use:   "regenerate <dataset>",
		Short: "Replace legacy and duplicate identifiers",
		Long: `Regenerate gives every record with a missing, numeric, non-conforming
or repeated identifier a new one. Conforming unique identifiers are kept.

--config applies another dataset's identifier rules.`,
		Example: `  tally regenerate operations
  tally regenerate uploads --config operations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tally()
			if err != nil {
				return err
			}
			res, err := t.Regenerate(cmd.Context(), args[0], descriptor)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, res, func() output.Data {
				return output.Data{
					Headers: []string{"Dataset", "Updated", "Total"},
					Rows:    [][]string{{args[0], strconv.Itoa(res.Updated), strconv.Itoa(res.Total)}},
				}
			})
		},
	}

	cmd.Flags().StringVar(&descriptor, "config", "", "descriptor to apply instead of the dataset's own")

	return cmd
}
