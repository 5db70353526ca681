package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/buildsignal/internal/config"
)

// Config command flags.
var (
	configGlobal bool
	configForce  bool
)

// configCmd is the parent command for config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and modify buildsignal configuration",
	Long: `View and modify buildsignal configuration.

A global config at ~/.config/buildsignal/config.yaml (or config.toml)
provides defaults. A .buildsignal.yaml in a project's root overrides it for
that project, BUILDSIGNAL_* environment variables override both, and flags
override everything.

Note: config set does a YAML round-trip and will not preserve comments.`,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging the global file, the .buildsignal.yaml
in the current directory, the environment and flags, with defaults applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configInitCmd writes a config file with default values.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a config file holding the default values. By default this creates
.buildsignal.yaml in the current directory; --global writes the global
config instead. Existing files are kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configGetCmd retrieves a configuration value by dot-notation key path.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get an effective configuration value by dot-notation key path.

Examples:
  buildsignal config get parser
  buildsignal config get exclude_patterns
  buildsignal config get --global default_scope`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in a config file.

Values are auto-detected as bool, int, float, or string.
By default, writes to .buildsignal.yaml in the current directory.
Use --global to write to ~/.config/buildsignal/config.yaml.

Examples:
  buildsignal config set default_scope project
  buildsignal config set concurrency 4
  buildsignal config set --global include_notes true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configInitCmd.Flags().BoolVar(&configGlobal, "global", false, "write the global config (~/.config/buildsignal/config.yaml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configGetCmd.Flags().BoolVar(&configGlobal, "global", false, "read only the global config")
	configSetCmd.Flags().BoolVar(&configGlobal, "global", false, "write to the global config")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	return config.Write(cmd.OutOrStdout(), cfg)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	target := filepath.Join(".", config.FileName)
	if configGlobal {
		target = config.GlobalConfigPath()
	}
	if _, err := cmdFS.Stat(target); err == nil && !configForce {
		return exitError(ExitInvalidArgs, "buildsignal: %s already exists (use --force to overwrite)", target)
	}

	var buf bytes.Buffer
	if err := config.Write(&buf, (&config.Config{}).WithDefaults()); err != nil {
		return err
	}
	if err := cmdFS.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return exitError(ExitFailure, "buildsignal: cannot create %s (%v)", filepath.Dir(target), err)
	}
	if err := cmdFS.WriteFile(target, buf.Bytes(), 0o600); err != nil {
		return exitError(ExitFailure, "buildsignal: cannot write %s (%v)", target, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	if configGlobal {
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		cfg = global
	} else {
		merged, err := loadConfig(".")
		if err != nil {
			return err
		}
		cfg = merged
	}

	val, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}
	return printValue(cmd, val)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	keyPath, rawValue := args[0], args[1]
	if err := config.ValidateKeyPath(keyPath); err != nil {
		return err
	}

	target := filepath.Join(".", config.FileName)
	if configGlobal {
		target = config.GlobalConfigPath()
	}
	data, err := config.LoadRaw(target)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if err := config.SetValue(data, keyPath, rawValue); err != nil {
		return fmt.Errorf("setting value: %w", err)
	}

	// Round-trip validate: unmarshal to Config and validate.
	roundTrip, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	var validCfg config.Config
	if err := yaml.Unmarshal(roundTrip, &validCfg); err != nil {
		return fmt.Errorf("invalid config after set: %w", err)
	}
	if err := config.Validate(&validCfg); err != nil {
		return err
	}

	if err := config.WriteFile(target, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", keyPath, rawValue)
	return nil
}

// printValue outputs a value: scalars as plain text, maps/slices as YAML.
func printValue(cmd *cobra.Command, val any) error {
	switch v := val.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
	default:
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

// resetConfigFlags resets config command flags for testing.
func resetConfigFlags() {
	configGlobal = false
	configForce = false
	for _, c := range []*cobra.Command{configInitCmd, configGetCmd, configSetCmd} {
		for _, name := range []string{"global", "force"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
	}
}
