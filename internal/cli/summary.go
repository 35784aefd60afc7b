package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/export"
)

func newSummaryCmd() *cobra.Command {
	var (
		taxYear int
		format  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "summary FILE",
		Short: "Total every form's entries per Form 1040 line",
		Long: `summary validates and maps every form in FILE, then totals the amounts per
destination line. With --tax-year only forms for that year are included;
otherwise every form is totalled and the summary carries the current year.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var year *int
			if cmd.Flags().Changed("tax-year") {
				if fe := core.ValidateTaxYear(taxYear); fe != nil {
					return fe
				}
				year = &taxYear
			}

			forms, err := readForms(args[0])
			if err != nil {
				return err
			}
			records, err := validateAll(cmd, forms)
			if err != nil {
				return err
			}

			if year != nil {
				kept := records[:0]
				for _, sr := range records {
					if sr.Record.TaxYear == *year {
						kept = append(kept, sr)
					}
				}
				records = kept
			}

			agg, err := core.Aggregate(records)
			if err != nil {
				return err
			}

			now := time.Now()
			label := now.Year()
			if year != nil {
				label = *year
			}
			summary := core.ToSummary(agg, label, now)

			return writeOutput(cmd, outPath, func(w io.Writer) error {
				return export.Write(w, f, summary)
			})
		},
	}

	cmd.Flags().IntVar(&taxYear, "tax-year", 0, "Only include forms for this tax year")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

// writeOutput runs write against outPath, or stdout when outPath is empty.
func writeOutput(cmd *cobra.Command, outPath string, write func(io.Writer) error) error {
	if outPath == "" {
		return write(cmd.OutOrStdout())
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
	return nil
}
