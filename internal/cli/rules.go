package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/form1099/internal/core"
)

// ruleSet is one form type's entry in the rules dump.
type ruleSet struct {
	FormType core.FormType      `json:"formType" yaml:"formType"`
	Title    string             `json:"title" yaml:"title"`
	Rules    []core.MappingRule `json:"rules" yaml:"rules"`
}

func newRulesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the 1099 to Form 1040 mapping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sets []ruleSet
			for _, def := range core.All() {
				sets = append(sets, ruleSet{
					FormType: def.Info.Type,
					Title:    def.Info.Title,
					Rules:    def.Rules,
				})
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(sets); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sets)
			default:
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	return cmd
}
