package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hirewithprachi/console/internal/cli/auth"
	"github.com/hirewithprachi/console/internal/cli/config"
	"github.com/hirewithprachi/console/internal/cli/provider"
	"github.com/hirewithprachi/console/internal/gate"
)

const loginTimeout = 30 * time.Second

// loginOptions carries injectable dependencies for testing
type loginOptions struct {
	tokenStore auth.TokenStore
	server     *config.Server
}

// LoginOption customizes runLogin, mainly for tests
type LoginOption func(*loginOptions)

// WithTokenStore injects a token store
func WithTokenStore(store auth.TokenStore) LoginOption {
	return func(o *loginOptions) { o.tokenStore = store }
}

// WithServer bypasses config loading and server selection
func WithServer(server *config.Server) LoginOption {
	return func(o *loginOptions) { o.server = server }
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an admin console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password, serverAlias)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set HWP_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set HWP_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")

	return cmd
}

func runLogin(email, password, serverAlias string, opts ...LoginOption) error {
	options := &loginOptions{
		tokenStore: auth.Default,
	}
	for _, opt := range opts {
		opt(options)
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("HWP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("HWP_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or HWP_EMAIL env var)")
	}

	server := options.server
	if server == nil {
		var err error
		server, err = getSelectedServer(serverAlias)
		if err != nil {
			return err
		}
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println()
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or HWP_PASSWORD env var)")
		}
	}

	fmt.Printf("Logging in to %s (%s)...\n", server.Alias, server.Host)

	// Drive the same auth gate the web console uses: sign in, wait for the
	// session to settle, verify admin access, and only then declare success.
	remote := provider.New(server.Host, options.tokenStore)
	store := gate.NewStore(remote, remote, zerolog.Nop())
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	flow := gate.NewLoginFlow(store, remote, zerolog.Nop())
	if err := flow.Submit(ctx, email, password, nil); err != nil {
		var vErr *gate.ValidationError
		switch {
		case errors.As(err, &vErr):
			return fmt.Errorf("%s", vErr.Error())
		case errors.Is(err, gate.ErrInvalidCredentials):
			return fmt.Errorf("login failed: invalid email or password")
		case errors.Is(err, gate.ErrAccessDenied):
			return fmt.Errorf("login failed: this account does not have admin access")
		case errors.Is(err, gate.ErrNetwork):
			return fmt.Errorf("login failed: could not reach %s: %v", server.Host, err)
		default:
			return fmt.Errorf("login failed: %w", err)
		}
	}

	state := store.State()
	fmt.Println("✓ Login successful!")
	if state.User != nil {
		fmt.Printf("  User: %s\n", state.User.Email)
	}
	if state.AdminInfo != nil {
		fmt.Printf("  Role: %s\n", state.AdminInfo.Role)
	}

	return nil
}
