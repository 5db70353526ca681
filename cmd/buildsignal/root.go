package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/config"
	bslog "github.com/davetashner/buildsignal/internal/log"
)

// Global flag values.
var (
	verbose     bool
	quiet       bool
	noColor     bool
	logFormat   string
	derivedData string
	parserFlag  string
	noCache     bool
)

// rootCmd is the base command for buildsignal.
var rootCmd = &cobra.Command{
	Use:   "buildsignal",
	Short: "Surface the warnings hiding in your Xcode builds",
	Long: `BuildSignal reads Xcode's DerivedData folder, decodes the build activity
logs it finds there and reports the warnings, errors and deprecations they
contain. Notices can be scoped to your own sources or to Swift package
dependencies, grouped into categories, aggregated by directory and compared
between builds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := bslog.Setup(bslog.Options{
			Verbose: verbose,
			Quiet:   quiet,
			Format:  logFormat,
			Writer:  cmd.ErrOrStderr(),
		}); err != nil {
			return exitError(ExitInvalidArgs, "buildsignal: %v", err)
		}
		if noColor || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
		if err := config.LoadDotEnv(".env"); err != nil {
			slog.Warn("ignoring unreadable .env file", "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", bslog.FormatText, "log output format: text or json")
	rootCmd.PersistentFlags().StringVar(&derivedData, "derived-data", "", "DerivedData folder (default ~/Library/Developer/Xcode/DerivedData)")
	rootCmd.PersistentFlags().StringVar(&parserFlag, "parser", "", "log parser backend: auto, native or xclogparser")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not read or write the parse cache")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(buildsCmd)
	rootCmd.AddCommand(noticesCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
