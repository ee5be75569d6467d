// Package datasets provides the dataset commands: datasets, stats and export.
package datasets

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
)

func render(w io.Writer, app application.Application, data any, layout output.Layout) error {
	return output.Print(w, output.DetectFormat(app.OutputFormat()), data, layout)
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ls"},
		Short:   "List stored datasets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := app.Tally()
			if err != nil {
				return err
			}
			infos, err := t.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, infos, func() output.Data { return output.Datasets(infos) })
		},
	}

	cmd.AddCommand(newDeleteCommand(app))
	return cmd
}

func newDeleteCommand(app application.Application) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <dataset>",
		Short: "Delete a dataset and all of its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			t, err := app.Tally()
			if err != nil {
				return err
			}
			if err := t.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <dataset>",
		Short: "Summarize a dataset",
		Long: `Stats reports the record count, columns, identifier health and the
descriptor's aggregates of a dataset.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Tally()
			if err != nil {
				return err
			}
			st, err := t.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, st, func() output.Data { return output.Stats(st) })
		},
	}
}
