package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirewithprachi/console/internal/cli/auth"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session for a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")

	return cmd
}

func runLogout(serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	if err := auth.DeleteToken(server.Host); err != nil {
		return fmt.Errorf("failed to discard session: %w", err)
	}

	fmt.Printf("✓ Logged out of %s (%s)\n", server.Alias, server.Host)
	return nil
}
