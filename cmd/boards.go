package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/copilot-velocity/internal/gateway"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "Lists the Jira boards visible to the configured account",
	Long: `Lists Jira agile boards as JSON so that a board ID can be chosen for JIRA_BOARD_ID.
Requires JIRA_BASE_URL, JIRA_EMAIL and JIRA_API_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()

		var missing []string
		for _, key := range a.cfg.Jira.Missing() {
			if key != "JIRA_BOARD_ID" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("jira is not configured: missing %s", strings.Join(missing, ", "))
		}

		jira, err := gateway.NewJiraGateway(a.cfg.Jira, a.cache, a.logger,
			gateway.WithRetry(a.cfg.Source.MaxRetries, gateway.DefaultRetryInterval))
		if err != nil {
			return err
		}
		boards, err := jira.ListBoards(cmd.Context())
		if err != nil {
			return err
		}
		if boards == nil {
			boards = []gateway.Board{}
		}
		return writeJSON(cmd.OutOrStdout(), boards)
	},
}

func init() {
	rootCmd.AddCommand(boardsCmd)
}
