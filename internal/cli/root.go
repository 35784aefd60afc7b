// Package cli implements the form1099 command line tool.
//
// Every command reads an input file of the shape
//
//	forms:
//	  - id: acme-2024          # optional, defaults to form-<n>
//	    formType: NEC
//	    taxYear: 2024
//	    data:
//	      nonemployeeCompensation: 10000
//	      payer: {name: Acme, ...}
//
// in YAML or JSON, and writes results to stdout. Logs go to stderr.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/form1099/internal/logging"
)

// NewRootCmd builds the form1099 command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "form1099",
		Short: "Map 1099 information returns onto Form 1040 lines",
		Long: `form1099 validates 1099 forms (NEC, MISC, INT, DIV, B, R, G, K), maps each
reported amount to its Form 1040 or schedule line, and totals the lines
across forms.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newValidateCmd(),
		newMapCmd(),
		newSummaryCmd(),
		newRulesCmd(),
	)
	return root
}
