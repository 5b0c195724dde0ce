package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/s0up4200/tracescene/tracemoe"
)

// limitsCmd represents the limits command
var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the search quota of your API key or IP address",
	Long: `Show the priority, concurrency and monthly search quota trace.moe applies to
the configured API key, or to your IP address when no key is set.`,
	Args:    cobra.NoArgs,
	PreRunE: initializeApp,
	RunE:    runLimits,
}

func init() {
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, args []string) error {
	limits, err := client.FetchLimits(cmd.Context())
	if err != nil {
		return err
	}

	printLimits(cmd.OutOrStdout(), limits, client.APIKey() != "")
	return nil
}

func printLimits(out io.Writer, limits *tracemoe.Limits, withKey bool) {
	identity := "IP address"
	if withKey {
		identity = "API key"
	}

	fmt.Fprintf(out, "trace.moe limits for %s %s:\n", identity, limits.ID)
	fmt.Fprintf(out, "- Priority: %d\n", limits.Priority)
	fmt.Fprintf(out, "- Concurrency: %d\n", limits.Concurrency)
	fmt.Fprintf(out, "- Quota: %d of %d remaining\n", limits.RemainingQuota, limits.TotalQuota)
}
