package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RedHatProductSecurity/osim/internal/fixture"
	"github.com/RedHatProductSecurity/osim/internal/output"
)

var (
	flagGenCount  int
	flagGenSeed   uint64
	flagGenLength int
)

var generateCmd = &cobra.Command{
	Use:       "generate <cve|cwe|cvss|text>",
	Aliases:   []string{"gen"},
	Short:     "Print generated test data",
	ValidArgs: []string{"cve", "cwe", "cvss", "text"},
	Long: `Print values of the kind the scenarios type into OSIM.

  cve   syntactically valid CVE ID
  cwe   CWE-N
  cvss  CVSS:3.1 vector
  text  random alphanumeric text (--length)

A fixed --seed makes the output reproducible.

Examples:
  osim-e2e generate cve
  osim-e2e generate cvss --count 5
  osim-e2e generate text --length 32 --seed 7`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagGenCount < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", flagGenCount)
		}
		if flagGenLength < 1 {
			return fmt.Errorf("--length must be at least 1, got %d", flagGenLength)
		}
		seed := flagGenSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		g := fixture.NewGenerator(seed)

		var next func() string
		switch args[0] {
		case "cve":
			next = g.CVE
		case "cwe":
			next = g.CWE
		case "cvss":
			next = g.CVSS31
		case "text":
			next = func() string { return g.RandomText(flagGenLength) }
		}

		values := make([]string, flagGenCount)
		for i := range values {
			values[i] = next()
		}
		if output.IsJSON() {
			return output.WriteJSON(cmd.OutOrStdout(), map[string]any{"kind": args[0], "values": values}, true)
		}
		return output.WriteList(cmd.OutOrStdout(), values)
	},
}

func init() {
	generateCmd.Flags().IntVarP(&flagGenCount, "count", "n", 1, "number of values")
	generateCmd.Flags().Uint64Var(&flagGenSeed, "seed", 0, "random seed (0 picks one)")
	generateCmd.Flags().IntVar(&flagGenLength, "length", fixture.DefaultTextLength, "text length")

	rootCmd.AddCommand(generateCmd)
}
