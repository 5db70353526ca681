package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/tree"
)

// Tree flag values.
var (
	treeBuild   string
	treeLog     string
	treeDepth   int
	treeJSON    bool
	treeFocus   string
	treeFilters filterFlags
)

// treeCmd prints notice counts aggregated by directory.
var treeCmd = &cobra.Command{
	Use:   "tree [project]",
	Short: "Show notice counts by directory",
	Long: `Aggregate a build's notices into a directory tree rooted at the longest
common directory of their files. Every directory shows the number of notices
at or below it; the busiest directories come first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeBuild, "build", "", "build ID or unique prefix (default: latest)")
	treeCmd.Flags().StringVar(&treeLog, "log", "", "parse a standalone .xcactivitylog file")
	treeCmd.Flags().IntVar(&treeDepth, "depth", 0, "maximum depth to print (0 = unlimited)")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "print the tree as JSON")
	treeCmd.Flags().StringVar(&treeFocus, "path", "", "only print the subtree at this path")
	treeFilters.register(treeCmd.Flags(), false)
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	res, _, err := s.run(cmd.Context(), buildTarget{
		project: projectArg(args),
		build:   treeBuild,
		log:     treeLog,
	}, treeFilters)
	if err != nil {
		return err
	}

	root := tree.Build(res.Notices)
	if treeFocus != "" {
		node := root.Find(treeFocus)
		if node == nil {
			return exitError(ExitInvalidArgs, "buildsignal: no notices under %q", treeFocus)
		}
		root = node
	}

	w := cmd.OutOrStdout()
	if treeJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	}
	if root.Count == 0 {
		_, _ = fmt.Fprintln(w, "No notices.")
		return nil
	}
	return tree.Render(w, root, treeDepth)
}
