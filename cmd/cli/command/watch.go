package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"stackit/internal/microservices/events"
	"stackit/pkg/realtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live updates for a question or the global feed",
	Example: `  stackit watch --question 3f2a...
  stackit watch --global`,
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, _ := cmd.Flags().GetString("question")
		global, _ := cmd.Flags().GetBool("global")
		if questionID == "" && !global {
			return fmt.Errorf("pass --question, --global or both")
		}

		wsURL, err := websocketURL(apiURL)
		if err != nil {
			return err
		}

		rt := realtime.New(realtime.Options{URL: wsURL, Token: token})
		rt.On(realtime.AnyType, printFrame)
		if questionID != "" {
			rt.JoinQuestion(questionID)
		}
		if global {
			rt.JoinGlobal()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("\n🔌 Connecting to %s...\n", wsURL)
		err = rt.Run(ctx)
		if errors.Is(err, realtime.ErrReconnectExhausted) {
			return fmt.Errorf("lost connection to the server: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	watchCmd.Flags().StringP("question", "q", "", "question id to watch")
	watchCmd.Flags().BoolP("global", "g", false, "watch the global feed")
	rootCmd.AddCommand(watchCmd)
}

// websocketURL turns http://host:port into ws://host:port/ws.
func websocketURL(api string) (string, error) {
	u, err := url.Parse(api)
	if err != nil {
		return "", fmt.Errorf("invalid --api: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func printFrame(f realtime.Frame) {
	switch events.EventType(f.Type) {
	case events.VoteUpdate:
		var p events.VoteUpdatePayload
		if f.Decode(&p) == nil {
			color.Cyan("▲ %s %s score %d", p.TargetType, p.TargetID, p.VoteCount)
		}
	case events.NewAnswer:
		var p events.AnswerPayload
		if f.Decode(&p) == nil {
			color.Green("+ new answer %s by %s on %s", p.ID, p.Author.Username, p.QuestionID)
		}
	case events.AnswerUpdated:
		var p events.AnswerPayload
		if f.Decode(&p) == nil {
			color.Blue("~ answer %s edited", p.ID)
		}
	case events.AnswerAccepted:
		var p events.AnswerAcceptedPayload
		if f.Decode(&p) == nil {
			if p.IsAccepted {
				color.Green("✓ answer %s accepted", p.AnswerID)
			} else {
				color.Yellow("✗ answer %s unaccepted", p.AnswerID)
			}
		}
	case events.AnswerDeleted:
		var p events.AnswerDeletedPayload
		if f.Decode(&p) == nil {
			color.Red("- answer %s deleted", p.AnswerID)
		}
	case events.QuestionUpdated:
		var p events.QuestionUpdatedPayload
		if f.Decode(&p) == nil {
			color.Blue("~ question %s now titled %q", p.ID, p.Title)
		}
	case events.QuestionDeleted:
		var p events.QuestionDeletedPayload
		if f.Decode(&p) == nil {
			color.Red("- question %s deleted", p.QuestionID)
		}
	default:
		switch f.Type {
		case "welcome":
			fmt.Println("✅ Connected! Press Ctrl+C to stop.")
		case "joined":
			color.HiBlack("joined %s", f.Room)
		case "error":
			color.Red("server error: %s", string(f.Payload))
		}
	}
}
