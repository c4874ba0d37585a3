// Package export serializes admin-console records for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/hirewithprachi/console/internal/models"
)

var leadHeader = []string{
	"id", "created_at", "name", "email", "phone", "company", "source", "status", "message", "notes",
}

// WriteLeadsCSV streams leads as CSV, header first
func WriteLeadsCSV(w io.Writer, leads []models.Lead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(leadHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range leads {
		lead := &leads[i]
		row := []string{
			lead.ID,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Company,
			lead.Source,
			lead.Status,
			lead.Message,
			lead.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// LeadsFileName returns a timestamped export file name
func LeadsFileName(now time.Time) string {
	return fmt.Sprintf("leads_%s.csv", now.UTC().Format("20060102150405"))
}
