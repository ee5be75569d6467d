package rows

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/tally"
	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
)

// NewRowsCommand creates the rows command.
func NewRowsCommand(app application.Application) *cobra.Command {
	var (
		q     tally.RowsQuery
		order string
	)

	cmd := &cobra.Command{
		Use:   "rows <dataset> [id]",
		Short: "List the rows of a dataset, or show one row",
		Long: `Rows lists the records of a dataset. Legacy identifiers are repaired
before anything is shown.

With an id, only that record is printed.`,
		Example: `  tally rows operations
  tally rows operations --search fence --sort-by LENGTH_KM --order desc
  tally rows operations --page 2 --limit 50
  tally rows operations OPS-1700000000000-1`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tally()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if len(args) == 2 {
				rec, err := t.Row(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return render(w, app, rec, func() output.Data { return output.Record(rec) })
			}

			q.SortOrder = tally.SortOrder(order)
			page, err := t.Rows(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			if page.IDsUpdated {
				app.Logger().Info().Str("dataset", args[0]).Msg("Legacy identifiers regenerated")
			}
			return render(w, app, page, func() output.Data { return output.Rows(page) })
		},
	}

	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "case-insensitive text to match in any column")
	cmd.Flags().StringVar(&q.SortBy, "sort-by", "", "column to sort by")
	cmd.Flags().StringVar(&order, "order", string(tally.SortAsc), "sort order: asc or desc")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "rows per page (0 for all rows)")

	return cmd
}
