// Package export writes the stored job table to CSV for offline analysis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/NaqibL/mcf/internal/model"
)

// Columns is the fixed CSV header, stable so downstream notebooks can rely
// on column positions.
var Columns = []string{
	"job_uuid", "title", "company_name", "location", "description",
	"category", "status", "first_seen", "last_seen",
}

// WriteCSV streams jobs to w as CSV with the Columns header. Timestamps are
// RFC 3339 UTC.
func WriteCSV(w io.Writer, jobs []model.Job) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range jobs {
		j := &jobs[i]
		record := []string{
			j.JobUUID,
			j.Title,
			j.CompanyName,
			j.Location,
			j.Description,
			j.Category,
			string(j.Status),
			j.FirstSeenAt.UTC().Format(time.RFC3339),
			j.LastSeenAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write job %s: %w", j.JobUUID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
