package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/config"
	"github.com/RedHatProductSecurity/osim/internal/output"
)

var (
	flagConfigReveal bool
	flagConfigUser   bool
)

// secretKeys are masked by `config show` unless --reveal is given.
var secretKeys = map[string]bool{
	"integrations.bugzilla_api_key": true,
	"integrations.jira_api_key":     true,
	"osidb.token":                   true,
}

const masked = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration",
	Long: `Inspect and edit the suite configuration.

Precedence: defaults < ~/.osim-e2e/config.toml < .osim-e2e/config.toml
< environment < flags.

Examples:
  osim-e2e config show
  osim-e2e config get general.osim_url
  osim-e2e config set browser.backend webdriver
  osim-e2e config set --user integrations.jira_api_key <key>
  osim-e2e config path`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		flat, err := config.Flatten(cfg)
		if err != nil {
			return fmt.Errorf("flattening config: %w", err)
		}
		for key := range flat {
			if secretKeys[key] && !flagConfigReveal && flat[key] != "" {
				flat[key] = masked
			}
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), flat, true)
		}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, fmt.Sprint(flat[k])})
		}
		return output.WriteTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, rows)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown config key %q (see `osim-e2e config show`)", args[0])
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]any{"key": args[0], "value": val}, true)
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one value to the project (or user) config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		val, err := config.ParseValue(key, args[1])
		if err != nil {
			return err
		}
		path, err := configFilePath(flagConfigUser)
		if err != nil {
			return err
		}
		if err := config.WriteValue(path, key, val); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]any{"key": key, "value": val, "path": path}, true)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", key, val, path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := os.Getwd()
		if err != nil {
			return err
		}
		user, proj := config.ConfigPaths(project, flagConfig)
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]string{"user": user, "project": proj}, true)
		}
		return output.WriteTable(cmd.OutOrStdout(), nil, [][]string{
			{"user", user, exists(user)},
			{"project", proj, exists(proj)},
		})
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&flagConfigReveal, "reveal", false, "print API keys and tokens in clear")
	configSetCmd.Flags().BoolVar(&flagConfigUser, "user", false, "write ~/.osim-e2e/config.toml instead of the project file")

	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func configFilePath(user bool) (string, error) {
	project, err := os.Getwd()
	if err != nil {
		return "", err
	}
	userPath, projectPath := config.ConfigPaths(project, flagConfig)
	if user {
		return userPath, nil
	}
	return projectPath, nil
}

func exists(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "(missing)"
	}
	return ""
}
