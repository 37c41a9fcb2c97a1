package command

import (
	"fmt"

	"stackit/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <answer-id>",
	Short: "Toggle acceptance of an answer on your question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		undo, _ := cmd.Flags().GetBool("undo")

		var (
			resp *dto.AcceptanceResponse
			err  error
		)
		if undo {
			resp, err = newHTTPClient().Unaccept(args[0])
		} else {
			resp, err = newHTTPClient().Accept(args[0])
		}
		if err != nil {
			return fmt.Errorf("accept failed: %w", err)
		}

		if resp.IsAccepted {
			color.Green("✓ answer %s accepted", resp.AnswerID)
		} else {
			color.Yellow("answer %s is no longer accepted", resp.AnswerID)
		}
		return nil
	},
}

func init() {
	acceptCmd.Flags().Bool("undo", false, "unaccept instead of toggling")
	rootCmd.AddCommand(acceptCmd)
}
