package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirewithprachi/console/internal/cli/auth"
	"github.com/hirewithprachi/console/internal/cli/provider"
)

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var serverAlias, email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(serverAlias, email)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")
	cmd.Flags().StringVar(&email, "email", "", "Account email address")

	return cmd
}

func runResetPassword(serverAlias, email string) error {
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	remote := provider.New(server.Host, auth.Default)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := remote.ResetPasswordForEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}

	fmt.Println("✓ If the account exists, a reset email is on its way.")
	fmt.Println("  Use the one-time code from the email in the web console to set a new password.")
	return nil
}
