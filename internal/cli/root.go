package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "counsel",
	Short: "Approval-driven learning for decision recommendations",
	Long: "Counsel records decisions and the human approvals they receive, and learns " +
		"which recommendations to rank first. Single Go binary backed by SQLite.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.counsel/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "talk to a running server at this URL instead of the local database")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(weightsCmd)
}
