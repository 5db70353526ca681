package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/report"
)

var categoriesJSON bool

// categoriesCmd lists the warning categories in match order.
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List warning categories in match order",
	Long: `List the categories notices are sorted into. Custom categories from the
config come first, then the built-in ones. A notice belongs to the first
category with a matching pattern, or to "other".`,
	Args: cobra.NoArgs,
	RunE: runCategories,
}

func init() {
	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "print JSON instead of a table")
}

func runCategories(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}
	matcher, err := category.NewMatcher(cfg.CustomCategories)
	if err != nil {
		return exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}
	cats := matcher.Categories()

	w := cmd.OutOrStdout()
	if categoriesJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cats)
	}

	tbl := report.NewTable(
		report.Column{Header: "ID"},
		report.Column{Header: "Name"},
		report.Column{Header: "Source"},
		report.Column{Header: "Patterns", MaxWidth: 70},
	)
	for _, c := range cats {
		source := "built-in"
		if c.Custom {
			source = "custom"
		}
		tbl.AddRow(c.ID, c.Name, source, strings.Join(c.Patterns, ", "))
	}
	return tbl.Render(w)
}
