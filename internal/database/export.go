package database

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// exportHeader is the fixed column order of the aggregate CSV export.
var exportHeader = []string{
	"id", "timestamp", "title", "model", "language", "brief",
	"resolution", "completeness", "accuracy", "efficiency",
	"tags", "csv_path", "html_path", "created_at",
}

// ExportAll dumps every record row to a CSV file at path and returns the
// number of records written.
func (db *DB) ExportAll(path string) (int, error) {
	records, err := db.GetAllRecords()
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return 0, err
	}

	for _, r := range records {
		createdAt := ""
		if r.CreatedAt != nil {
			createdAt = *r.CreatedAt
		}
		row := []string{
			r.ID, r.Timestamp, r.Title, r.Model, r.Language, r.Brief,
			formatScore(r.Resolution), formatScore(r.Completeness),
			formatScore(r.Accuracy), formatScore(r.Efficiency),
			strings.Join(r.Tags, ","), r.CSVPath, r.HTMLPath, createdAt,
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return len(records), nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
