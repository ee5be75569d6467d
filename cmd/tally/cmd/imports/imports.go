// Package imports provides the import and analyze commands.
package imports

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/tally/cmd/application"
	"github.com/agentstation/tally/internal/cmd/output"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/ingest"
	"github.com/agentstation/tally/pkg/ingest/xlsx"
)

func render(w io.Writer, app application.Application, data any, layout output.Layout) error {
	return output.Print(w, output.DetectFormat(app.OutputFormat()), data, layout)
}

// openFile opens path as a CSV or workbook row source. The returned func
// closes it.
func openFile(path string) (ingest.RowSource, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.WrapIO("open", path, err)
	}
	src, err := xlsx.OpenSource(filepath.Base(path), f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return src, func() {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
		_ = f.Close()
	}, nil
}

// NewImportCommand creates the import command.
func NewImportCommand(app application.Application) *cobra.Command {
	var (
		mappings   []string
		descriptor string
		idField    string
		idPrefix   string
		threshold  float64
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "import <dataset> <file>",
		Short: "Import a workbook or CSV file, skipping duplicates",
		Long: `Import reads every sheet of an .xlsx workbook, or a single .csv file,
and adds each row that is not a near-duplicate of a stored record.

Rows in the same file are not compared with each other.`,
		Example: `  tally import operations works.xlsx
  tally import operations works.csv --map "Name of Work=NAME_OF_WORK" --dry-run
  tally import uploads sheet.xlsx --config operations --threshold 0.8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []ingest.Option
			if len(mappings) > 0 {
				mapping, err := parseMappings(mappings)
				if err != nil {
					return err
				}
				opts = append(opts, ingest.WithColumnMapping(mapping))
			}
			if descriptor != "" {
				opts = append(opts, ingest.WithDescriptor(descriptor))
			}
			if idField != "" || idPrefix != "" {
				opts = append(opts, ingest.WithIdentity(idField, idPrefix))
			}
			if cmd.Flags().Changed("threshold") {
				opts = append(opts, ingest.WithThreshold(threshold))
			}
			opts = append(opts, ingest.WithDryRun(dryRun))

			src, closeSrc, err := openFile(args[1])
			if err != nil {
				return err
			}
			defer closeSrc()

			t, err := app.Tally()
			if err != nil {
				return err
			}
			stats, err := t.Import(cmd.Context(), args[0], src, opts...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, stats, func() output.Data { return output.Import(stats) })
		},
	}

	cmd.Flags().StringArrayVar(&mappings, "map", nil, "rename a source column as SOURCE=TARGET (repeatable)")
	cmd.Flags().StringVar(&descriptor, "config", "", "descriptor to use instead of the dataset's own")
	cmd.Flags().StringVar(&idField, "id-field", "", "identifier column override")
	cmd.Flags().StringVar(&idPrefix, "id-prefix", "", "identifier prefix override")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "duplicate threshold between 0 and 1")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be imported without writing")

	return cmd
}

func parseMappings(pairs []string) (map[string]string, error) {
	mapping := make(map[string]string, len(pairs))
	for _, p := range pairs {
		src, dst, ok := strings.Cut(p, "=")
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if !ok || src == "" || dst == "" {
			return nil, errors.NewValidationError("map", p, "must be SOURCE=TARGET")
		}
		mapping[src] = dst
	}
	return mapping, nil
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Describe the sheets of a workbook or CSV file",
		Long: `Analyze lists each sheet with its data row count and headers, so a
column mapping can be prepared before importing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeSrc, err := openFile(args[0])
			if err != nil {
				return err
			}
			defer closeSrc()

			t, err := app.Tally()
			if err != nil {
				return err
			}
			sheets, err := t.Analyze(cmd.Context(), src)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), app, sheets, func() output.Data { return output.Sheets(sheets) })
		},
	}
}
