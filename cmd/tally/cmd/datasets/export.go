package datasets

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/pkg/constants"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/store"
)

// NewExportCommand creates the export command.
func NewExportCommand(app application.Application) *cobra.Command {
	var (
		file        string
		compression string
		level       int
	)

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Write a dataset as CSV",
		Example: `  tally export operations > operations.csv
  tally export operations --compression zstd --file operations.csv.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := store.ParseCompression(compression)
			if err != nil {
				return err
			}
			opts := []store.ExportOption{store.WithCompression(c)}
			if cmd.Flags().Changed("level") {
				opts = append(opts, store.WithLevel(level))
			}

			t, err := app.Tally()
			if err != nil {
				return err
			}
			data, err := t.Export(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}

			if file == "" || file == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(file, data, constants.FilePermissions); err != nil {
				return errors.WrapIO("write", file, err)
			}
			app.Logger().Info().
				Str("dataset", args[0]).
				Str("file", file).
				Int("bytes", len(data)).
				Msg("Dataset exported")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "destination file (default stdout)")
	cmd.Flags().StringVar(&compression, "compression", "none", "compression: none, gzip or zstd")
	cmd.Flags().IntVar(&level, "level", 0, "compression level")

	return cmd
}
