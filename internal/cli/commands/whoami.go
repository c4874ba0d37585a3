package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hirewithprachi/console/internal/cli/auth"
	"github.com/hirewithprachi/console/internal/cli/provider"
	"github.com/hirewithprachi/console/internal/gate"
)

const whoamiTimeout = 15 * time.Second

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session and admin status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(serverAlias)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")

	return cmd
}

func runWhoami(serverAlias string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	remote := provider.New(server.Host, auth.Default)
	store := gate.NewStore(remote, remote, zerolog.Nop())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), whoamiTimeout)
	defer cancel()

	if err := store.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to restore session from %s: %w", server.Host, err)
	}

	state := store.State()
	switch gate.Decide(state) {
	case gate.ViewLogin:
		fmt.Printf("Not logged in to %s (%s). Run 'hwp login'.\n", server.Alias, server.Host)
	case gate.ViewDenied:
		fmt.Printf("Logged in as %s, but this account has no admin access.\n", state.User.Email)
	case gate.ViewContent:
		fmt.Printf("Server:  %s (%s)\n", server.Alias, server.Host)
		fmt.Printf("User:    %s\n", state.User.Email)
		fmt.Printf("Role:    %s\n", state.AdminInfo.Role)
		fmt.Printf("Expires: %s\n", state.User.ExpiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Println("Session state is still loading, try again.")
	}

	return nil
}
