// Package views holds the server-rendered pages.
package views

//go:generate templ generate

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/form1099/internal/core"
)

// DashboardData is everything the dashboard page shows.
type DashboardData struct {
	Summary   core.Summary
	Forms     []core.StoredForm
	FormTypes []core.FormDefinition
	Filtered  bool // Summary covers a single tax year
}

var exportFormats = []string{"json", "csv", "xlsx"}

func scope(d DashboardData) string {
	if d.Filtered {
		return fmt.Sprintf("tax year %d", d.Summary.TaxYear)
	}
	return "all tax years"
}

func exportURL(d DashboardData, format string) templ.SafeURL {
	if d.Filtered {
		return templ.URL(fmt.Sprintf("/api/export?taxYear=%d&format=%s", d.Summary.TaxYear, format))
	}
	return templ.URL("/api/export?format=" + format)
}

func sourceList(sources []core.Source) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("%s $%s", src.FormType, src.Amount.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}

func title(defs []core.FormDefinition, ft core.FormType) string {
	for _, def := range defs {
		if def.Info.Type == ft {
			return def.Info.Title
		}
	}
	return string(ft)
}

func payerName(data map[string]any) string {
	payer, ok := data["payer"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := payer["name"].(string)
	return name
}
