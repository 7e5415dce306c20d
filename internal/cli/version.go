// ABOUTME: Version command
// ABOUTME: Prints the product banner
package cli

import (
	"fmt"

	"github.com/Resonate-Protocol/chunkstream/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
