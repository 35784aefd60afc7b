// Command form1099 validates, maps and summarizes 1099 forms from a file.
//
// Usage:
//
//	form1099 validate forms.yaml
//	form1099 map forms.yaml
//	form1099 summary forms.yaml --tax-year 2024 --format csv --out summary.csv
//	form1099 rules --format json
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/form1099/internal/cli"
	"github.com/JonMunkholm/form1099/internal/core"
	_ "github.com/JonMunkholm/form1099/internal/core/forms" // Register all form types
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
