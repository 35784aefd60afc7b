package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/form1099/internal/core"
)

var errInvalidForms = errors.New("one or more forms are invalid")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate every form in FILE and report all problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forms, err := readForms(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bad := 0
			for _, f := range forms {
				if _, err := core.ValidateForTaxYear(f.FormType, f.TaxYear, f.Data); err != nil {
					bad++
					printValidationError(cmd, f, err)
					continue
				}
				fmt.Fprintf(out, "ok      %s (%s, %d)\n", f.ID, f.FormType, f.TaxYear)
			}

			fmt.Fprintf(out, "%d forms, %d valid, %d invalid\n", len(forms), len(forms)-bad, bad)
			if bad > 0 {
				return errInvalidForms
			}
			return nil
		},
	}
}

// validateAll validates every form and stops with a report if any fail.
func validateAll(cmd *cobra.Command, forms []form) ([]core.SourceRecord, error) {
	records := make([]core.SourceRecord, 0, len(forms))
	bad := 0
	for _, f := range forms {
		rec, err := core.ValidateForTaxYear(f.FormType, f.TaxYear, f.Data)
		if err != nil {
			bad++
			printValidationError(cmd, f, err)
			continue
		}
		records = append(records, core.SourceRecord{ID: f.ID, Record: rec})
	}
	if bad > 0 {
		return nil, fmt.Errorf("%w: %d of %d", errInvalidForms, bad, len(forms))
	}
	return records, nil
}

func printValidationError(cmd *cobra.Command, f form, err error) {
	out := cmd.OutOrStdout()

	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(out, "invalid %s: %v\n", f.ID, err)
		return
	}

	fmt.Fprintf(out, "invalid %s (%s, %d):\n", f.ID, f.FormType, f.TaxYear)
	for _, fe := range verr.Errors {
		fmt.Fprintf(out, "  - %s\n", fe.Error())
	}
}
