package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/form1099/internal/core"
)

type mappedForm struct {
	ID       string              `json:"id"`
	FormType core.FormType       `json:"formType"`
	TaxYear  int                 `json:"taxYear"`
	Entries  []core.MappingEntry `json:"entries"`
}

func newMapCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "map FILE",
		Short: "Print the Form 1040 entries each form produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unsupported format %q (use text or json)", format)
			}

			forms, err := readForms(args[0])
			if err != nil {
				return err
			}
			records, err := validateAll(cmd, forms)
			if err != nil {
				return err
			}

			mapped := make([]mappedForm, 0, len(records))
			for _, sr := range records {
				entries, err := core.MapToDestinationLines(sr.Record.Type, sr.Record)
				if err != nil {
					return err
				}
				if entries == nil {
					entries = []core.MappingEntry{}
				}
				mapped = append(mapped, mappedForm{
					ID:       sr.ID,
					FormType: sr.Record.Type,
					TaxYear:  sr.Record.TaxYear,
					Entries:  entries,
				})
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(mapped)
			}
			return printMapped(cmd, mapped)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func printMapped(cmd *cobra.Command, mapped []mappedForm) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, m := range mapped {
		fmt.Fprintf(tw, "%s\t1099-%s\t%d\n", m.ID, m.FormType, m.TaxYear)
		if len(m.Entries) == 0 {
			fmt.Fprintln(tw, "\t(no amounts reported)\t")
			continue
		}
		for _, e := range m.Entries {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\n", e.Line, e.Description, e.SourceField, money(e.Amount))
		}
	}
	return tw.Flush()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
