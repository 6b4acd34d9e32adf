package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giftwise/giftwise/internal/utils"
	"github.com/giftwise/giftwise/pkg/session"
)

// loginCmd stores the auth cookies of an existing browser session.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the auth cookies of a signed-in session",
	Long: `Stores the authToken, userId and organizationId cookies of a session you
signed into on the web panel, then checks them against the backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		user, _ := cmd.Flags().GetString("user")
		org, _ := cmd.Flags().GetString("org")
		noVerify, _ := cmd.Flags().GetBool("no-verify")

		s := session.Session{Token: token, UserID: user, OrganizationID: org}
		if !s.Valid() {
			return fmt.Errorf("--token, --user and --org are all required")
		}

		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Save(s); err != nil {
			return err
		}
		if noVerify {
			utils.Log.Info("Session stored")
			return nil
		}

		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		u, err := c.User(ctx)
		if err != nil {
			return fmt.Errorf("session stored but could not be verified: %w", err)
		}
		utils.Log.Infof("Signed in as %s %s <%s>", u.FirstName, u.LastName, u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored auth cookies",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return err
		}
		utils.Log.Info("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := apiClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		u, err := c.User(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s <%s>\nuser: %s\norganization: %s\n", u.FirstName, u.LastName, u.Email, u.ID, u.OrganizationID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("token", "t", "", "authToken cookie value")
	loginCmd.Flags().StringP("user", "u", "", "userId cookie value")
	loginCmd.Flags().StringP("org", "o", "", "organizationId cookie value")
	loginCmd.Flags().Bool("no-verify", false, "Store the session without contacting the backend")
}
