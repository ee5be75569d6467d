package rows

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/records"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(app application.Application) *cobra.Command {
	var (
		raw   string
		pairs []string
	)

	cmd := &cobra.Command{
		Use:   "insert <dataset>",
		Short: "Add a record unless a similar one exists",
		Long: `Insert scores the record against every stored record of the dataset.
It is rejected when the best match reaches the duplicate threshold; otherwise
it is stored with a fresh identifier and timestamps.`,
		Example: `  tally insert operations --set NAME_OF_WORK="Border fence" --set LENGTH_KM=12.5
  tally insert operations --json '{"NAME_OF_WORK":"Border fence","FRONTIER":"Eastern"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(raw, pairs)
			if err != nil {
				return err
			}
			t, err := app.Tally()
			if err != nil {
				return err
			}

			res, err := t.Insert(cmd.Context(), args[0], rec)
			var dup *errors.DuplicateError
			if errors.As(err, &dup) {
				matched := records.FromMap(dup.Matched, dup.Columns...)
				if perr := render(cmd.OutOrStdout(), app, dup, func() output.Data { return output.Record(matched) }); perr != nil {
					return perr
				}
				return fmt.Errorf("rejected: %d%% similar to row %d", dup.SimilarityPercent, dup.MatchedIndex)
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), app, res, func() output.Data {
				d := output.Record(res.Record)
				d.Rows = append([][]string{{"Index", fmt.Sprint(res.Index)}}, d.Rows...)
				return d
			})
		},
	}

	cmd.Flags().StringVar(&raw, "json", "", "record as a flat JSON object")
	cmd.Flags().StringArrayVar(&pairs, "set", nil, "field as KEY=VALUE (repeatable, applied after --json)")

	return cmd
}
