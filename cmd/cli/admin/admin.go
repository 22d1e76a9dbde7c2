package admin

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucial707/ipo-schedule/cmd/cli/client"
	"github.com/crucial707/ipo-schedule/cmd/cli/config"
	"github.com/crucial707/ipo-schedule/internal/auth"
)

// ==========================
// Init Admin
// ==========================
func InitAdmin(rootCmd *cobra.Command) {
	rootCmd.AddCommand(refreshCmd(), tokenCmd())
}

// ==========================
// REFRESH
// ==========================
func refreshCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ask the API to scrape the source page now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				stored, err := config.LoadToken()
				if err != nil {
					return fmt.Errorf("no token: pass --token, set IPO_API_TOKEN or run `ipoctl token --save`")
				}
				token = stored
			}
			if err := client.Post(cmd.Context(), "/admin/refresh", token, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Refresh started.")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "admin bearer token")
	return cmd
}

// ==========================
// TOKEN
// ==========================
func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	var save bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token from JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := config.JWTSecret()
			if err != nil {
				return err
			}
			token, err := auth.IssueToken([]byte(secret), subject, ttl)
			if err != nil {
				return err
			}
			if save {
				if err := config.SaveToken(token); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "ipoctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "store the token for later refresh calls")
	return cmd
}
