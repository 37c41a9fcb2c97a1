package command

import (
	"fmt"
	"time"

	"stackit/cmd/cli/authentication"
	"stackit/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// auth.go handles authentication commands: login, logout and whoami.

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the StackIt API server. The token is kept in the OS keyring.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your StackIt account",
	RunE: func(cmd *cobra.Command, args []string) error {
		// get data from flags
		var req dto.LoginRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")

		response, err := newHTTPClient().Login(&req)
		if err != nil {
			return fmt.Errorf("login process failed: %w", err)
		}

		err = authentication.StoreTokens(&authentication.StoredCredentials{
			AccessToken: response.AccessToken,
			Username:    response.Username,
			APIURL:      apiURL,
			ExpiresAt:   time.Now().Add(time.Duration(response.ExpiresIn) * time.Second).Unix(),
		})
		if err != nil {
			return fmt.Errorf("could not save token: %w", err)
		}

		color.Green("✓ Logged in as %s (%s)", response.Username, response.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		color.Green("✓ Successfully logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the saved login",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := authentication.GetTokens()
		if err != nil {
			return fmt.Errorf("not logged in")
		}
		expires := time.Unix(creds.ExpiresAt, 0)
		fmt.Printf("%s @ %s\n", creds.Username, creds.APIURL)
		if time.Now().After(expires) {
			color.Red("token expired %s", expires.Format(time.RFC822))
		} else {
			color.HiBlack("token valid until %s", expires.Format(time.RFC822))
		}
		return nil
	},
}

// init function to add auth commands to root command
func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username for the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(authCmd)
}
