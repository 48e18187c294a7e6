package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/bdd"
	"github.com/RedHatProductSecurity/osim/internal/logging"
	"github.com/RedHatProductSecurity/osim/internal/osidb"
	"github.com/RedHatProductSecurity/osim/internal/output"
)

var flagOracleFields []string

var oracleCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Query OSIDB for ground truth",
	Long: `Query the OSIDB instance the scenarios check against (osidb.url).

The token is osidb.token when set, otherwise the output of
osidb.token_command, which defaults to a Kerberos-negotiated curl call to
<osidb.url>/auth/token.

Examples:
  osim-e2e oracle flaw CVE-2024-12345
  osim-e2e oracle flaw 5c6ad8a0-9a1c-4a8f-8a69-1b4e3f8a2f10 --field impact
  osim-e2e oracle flaw CVE-2024-12345 -F affects__ps_component -F cwe_id`,
}

var oracleFlawCmd = &cobra.Command{
	Use:   "flaw <cve-or-uuid>",
	Short: "Print one flaw, or selected fields of it",
	Long: `Print the flaw addressed by a CVE ID or UUID.

Without --field the whole flaw is printed as JSON. Fields use OSIDB's
nested syntax (affects__ps_component); arrays list every value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		client := bdd.NewOracle(cfg, logging.WithPrefix("oracle"))
		if client == nil {
			return errors.New("osidb.url is not configured (set OSIDB_URL or osidb.url)")
		}
		logging.DefaultRedactor.AddSecret(cfg.OSIDB.Token)

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt)
		defer stop()

		flaw, err := fetchFlaw(ctx, client, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(flagOracleFields) == 0 {
			return output.WriteJSON(out, flaw, true)
		}
		values := make(map[string][]string, len(flagOracleFields))
		for _, field := range flagOracleFields {
			values[field] = osidb.FieldValues(flaw, field)
		}
		if output.IsJSON() {
			return output.WriteJSON(out, values, true)
		}
		rows := make([][]string, 0, len(flagOracleFields))
		for _, field := range flagOracleFields {
			rows = append(rows, []string{field, osidb.FieldValue(flaw, field)})
		}
		return output.WriteTable(out, []string{"FIELD", "VALUE"}, rows)
	},
}

func init() {
	oracleFlawCmd.Flags().StringSliceVarP(&flagOracleFields, "field", "F", nil, "field to print (repeatable)")

	oracleCmd.AddCommand(oracleFlawCmd)
	rootCmd.AddCommand(oracleCmd)
}

func fetchFlaw(ctx context.Context, client *osidb.Client, id string) (osidb.Flaw, error) {
	flaw, err := client.Flaw(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching flaw %s: %w", id, err)
	}
	return flaw, nil
}
