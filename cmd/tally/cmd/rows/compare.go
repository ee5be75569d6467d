package rows

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand(app application.Application) *cobra.Command {
	var a, b string

	cmd := &cobra.Command{
		Use:   "compare <dataset>",
		Short: "Score two records against each other",
		Long: `Compare shows how two records score with the dataset's comparison
columns and whether an insert of one would be rejected given the other.`,
		Example: `  tally compare operations \
    --a '{"NAME_OF_WORK":"Border fence","LENGTH_KM":"12.5"}' \
    --b '{"NAME_OF_WORK":"Border fencing","LENGTH_KM":"12"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra, err := parseRecord(a, nil)
			if err != nil {
				return err
			}
			rb, err := parseRecord(b, nil)
			if err != nil {
				return err
			}
			t, err := app.Tally()
			if err != nil {
				return err
			}

			res := t.Compare(args[0], ra, rb)
			return render(cmd.OutOrStdout(), app, res, func() output.Data { return output.Compare(res) })
		},
	}

	cmd.Flags().StringVar(&a, "a", "", "first record as a flat JSON object")
	cmd.Flags().StringVar(&b, "b", "", "second record as a flat JSON object")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	return cmd
}
