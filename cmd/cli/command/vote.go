package command

import (
	"fmt"
	"strings"

	"stackit/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// voteCmd casts a vote. Repeating the same vote removes it.
var voteCmd = &cobra.Command{
	Use:   "vote up|down",
	Short: "Vote on a question or an answer",
	Example: `  stackit vote up --question 3f2a...
  stackit vote down --answer 9c1b...`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireToken(); err != nil {
			return err
		}
		questionID, _ := cmd.Flags().GetString("question")
		answerID, _ := cmd.Flags().GetString("answer")
		if (questionID == "") == (answerID == "") {
			return fmt.Errorf("pass exactly one of --question or --answer")
		}

		resp, err := newHTTPClient().CastVote(&dto.CastVoteRequest{
			QuestionID: questionID,
			AnswerID:   answerID,
			Type:       strings.ToUpper(args[0]),
		})
		if err != nil {
			return fmt.Errorf("vote failed: %w", err)
		}

		if resp.UserVote == nil {
			color.Yellow("vote removed, score is now %d", resp.VoteCount)
			return nil
		}
		color.Green("✓ voted %s, score is now %d", *resp.UserVote, resp.VoteCount)
		return nil
	},
}

func init() {
	voteCmd.Flags().StringP("question", "q", "", "question id")
	voteCmd.Flags().StringP("answer", "a", "", "answer id")
	rootCmd.AddCommand(voteCmd)
}
