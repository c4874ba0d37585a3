package commands

import (
	"fmt"

	"github.com/hirewithprachi/console/internal/cli/config"
	"github.com/hirewithprachi/console/internal/cli/serverselect"
)

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'hwp init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.Host == "" {
		return nil, fmt.Errorf("server host is empty. Please edit hwp.json and add a valid host")
	}

	return server, nil
}
