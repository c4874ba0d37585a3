package commands

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hirewithprachi/console/internal/cli/auth"
	"github.com/hirewithprachi/console/internal/cli/client"
)

// NewLeadsCmd creates the leads command with its subcommands
func NewLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Work with marketing-site leads",
	}

	cmd.AddCommand(newLeadsListCmd())
	cmd.AddCommand(newLeadsExportCmd())

	return cmd
}

func newLeadsListCmd() *cobra.Command {
	var serverAlias, status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeadsList(serverAlias, status)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (new, contacted, qualified, closed)")

	return cmd
}

func runLeadsList(serverAlias, status string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient := client.New(server.Host, auth.Default)

	leads, err := apiClient.ListLeads(status)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("session expired or missing. Run 'hwp login'")
		}
		return err
	}

	if len(leads) == 0 {
		fmt.Println("No leads found.")
		return nil
	}

	fmt.Printf("Leads on %s (%s):\n\n", server.Alias, server.Host)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tCOMPANY\tSTATUS\tCREATED AT")
	fmt.Fprintln(w, "────\t─────\t───────\t──────\t──────────")

	for _, lead := range leads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			lead.Name,
			lead.Email,
			lead.Company,
			lead.Status,
			lead.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}

	w.Flush()

	return nil
}

func newLeadsExportCmd() *cobra.Command {
	var serverAlias, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download all leads as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeadsExport(serverAlias, outPath)
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from hwp.json")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (defaults to the server-chosen name)")

	return cmd
}

func runLeadsExport(serverAlias, outPath string) error {
	server, err := getSelectedServer(serverAlias)
	if err != nil {
		return err
	}

	apiClient := client.New(server.Host, auth.Default)

	// Download to a temp file first so a failed export never leaves a
	// truncated CSV behind.
	tmp, err := os.CreateTemp("", "hwp-leads-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	fileName, err := apiClient.ExportLeadsCSV(tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("session expired or missing. Run 'hwp login'")
		}
		return err
	}

	if outPath == "" {
		outPath = fileName
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		// Rename fails across filesystems; fall back to a copy
		data, readErr := os.ReadFile(tmp.Name())
		if readErr != nil {
			return fmt.Errorf("failed to move export: %w", err)
		}
		if writeErr := os.WriteFile(outPath, data, 0644); writeErr != nil {
			return fmt.Errorf("failed to write export: %w", writeErr)
		}
	}

	fmt.Printf("✓ Exported leads to %s\n", outPath)
	return nil
}
