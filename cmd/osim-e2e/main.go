// Command osim-e2e runs the OSIM end-to-end UI features.
package main

import (
	"os"

	"github.com/RedHatProductSecurity/osim/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
