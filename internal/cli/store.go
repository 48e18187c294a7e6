package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/output"
	"github.com/RedHatProductSecurity/osim/internal/store"
)

var flagStoreForce bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the hand-off state file",
	Long: `Read and write the state file that carries flaw IDs between scenarios.

The create scenarios record the flaws they make under flaw_id and
embargoed_flaw_id; the detail scenarios read them back. FLAW_ID and
EMBARGOED_FLAW_ID in the environment take precedence over the file.

Examples:
  osim-e2e store list
  osim-e2e store get flaw_id
  osim-e2e store set flaw_id CVE-2024-12345
  osim-e2e store delete embargoed_flaw_id`,
}

var storeGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one value (exit status 2 when missing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		val, err := st.Get(args[0])
		if isNotFound(err) {
			return &ExitError{Code: 2, Err: err}
		}
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": val}, true)
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var storeSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one value",
	Long: `Write one value to the state file.

Flaw keys (flaw_id, embargoed_flaw_id) must hold a CVE ID or a flaw UUID;
use --force to store anything else.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if _, flawKey := store.EnvShadows[key]; flawKey && !flagStoreForce && !store.ValidFlawID(value) {
			return fmt.Errorf("%q is neither a CVE ID nor a flaw UUID (use --force to store it anyway)", value)
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		if err := st.Set(key, value); err != nil {
			return fmt.Errorf("writing %s: %w", st.Path(), err)
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]string{"key": key, "value": value, "path": st.Path()}, true)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"rm"},
	Short:   "Remove one value",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		if err := st.Delete(args[0]); err != nil {
			return fmt.Errorf("writing %s: %w", st.Path(), err)
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]any{"key": args[0], "deleted": true}, true)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var storeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print every stored value",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		values, err := st.All()
		if err != nil {
			return err
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), values, true)
		}
		if len(values) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is empty\n", st.Path())
			return nil
		}
		return output.WriteMap(cmd.OutOrStdout(), values)
	},
}

func init() {
	storeSetCmd.Flags().BoolVar(&flagStoreForce, "force", false, "store flaw keys without validating them")

	storeCmd.AddCommand(storeGetCmd, storeSetCmd, storeDeleteCmd, storeListCmd)
	rootCmd.AddCommand(storeCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return store.New(cfg.Store.Path), nil
}

// isNotFound reports a missing store key.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
