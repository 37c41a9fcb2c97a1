package command

// root.go defines the root command for the stackit CLI.
// set up the global flags and stored credentials here.

import (
	"fmt"
	"os"

	"stackit/cmd/cli/authentication"
	"stackit/cmd/cli/command/client"

	"github.com/spf13/cobra"
)

var (
	apiURL string // Global flag for API server URL
	token  string // authentication token(jwt), flag or keyring
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackit",
	Short: "stackit - StackIt Q&A command line client",
	Long: `stackit talks to a StackIt API server. It can:
- Log in and keep the token in the OS keyring
- Vote on questions and answers
- Accept or unaccept answers on your own questions
- Watch a question (or the global feed) live over WebSocket

Use "stackit command --help" to see the flags of each command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadCredentials()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("STACKIT_API", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (defaults to the one saved by login)")
}

// loadCredentials fills token from the keyring unless --token was given.
func loadCredentials() {
	if token != "" {
		return
	}
	creds, err := authentication.GetTokens()
	if err != nil {
		return
	}
	token = creds.AccessToken
}

func newHTTPClient() *client.HTTPClient {
	c := client.NewHTTPClient(apiURL)
	c.SetToken(token)
	return c
}

func requireToken() error {
	if token == "" {
		return fmt.Errorf("not logged in: run 'stackit auth login' or pass --token")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
