package database

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
)

// getSchemaVersion reads PRAGMA user_version from the database.
func getSchemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// migrate brings the schema up to the latest version, tracked through
// PRAGMA user_version.
func migrate(conn *sql.DB) error {
	current, err := getSchemaVersion(conn)
	if err != nil {
		return err
	}

	// A records table with no version stamp is one of two things: a
	// migration-1 schema whose commit landed right before the
	// user_version write, or a database produced by an earlier external
	// tool whose layout never matched ours (comma-joined tags, different
	// columns). The first is safe to stamp and continue; the second must
	// not be touched.
	if current == 0 {
		hasRecords, err := tableExists(conn, "records")
		if err != nil {
			return err
		}
		if hasRecords {
			ok, err := matchesV1Records(conn)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("existing records table does not match any known schema; this database was not created by memoria — re-ingest the source documents into a fresh database file")
			}
			log.Printf("recovering unstamped version 1 schema")
			if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
				return fmt.Errorf("stamping version 1: %w", err)
			}
			current = 1
		}
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(conn, m); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one migration in a transaction, then records its version.
// The version write cannot share the transaction (modernc/sqlite rejects
// PRAGMA inside one); a crash between the two is healed by the unstamped
// schema recovery above, since the DDL is idempotent.
func apply(conn *sql.DB, m Migration) error {
	log.Printf("applying migration %d: %s", m.Version, m.Description)

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}

	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("setting version %d: %w", m.Version, err)
	}
	return nil
}

func tableExists(conn *sql.DB, name string) (bool, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for table %s: %w", name, err)
	}
	return count > 0, nil
}

// v1RecordsColumns is the exact column set migration 1 gives the records
// table, used to recognize an unstamped but compatible schema.
var v1RecordsColumns = []string{
	"id", "timestamp", "title", "model", "language", "brief",
	"resolution", "completeness", "accuracy", "efficiency",
	"tags", "csv_path", "html_path", "created_at",
}

// matchesV1Records reports whether the existing records table carries
// exactly the migration-1 columns.
func matchesV1Records(conn *sql.DB) (bool, error) {
	rows, err := conn.Query("PRAGMA table_info(records)")
	if err != nil {
		return false, fmt.Errorf("inspecting records schema: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             *string
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	sort.Strings(columns)
	expected := append([]string(nil), v1RecordsColumns...)
	sort.Strings(expected)
	return strings.Join(columns, ",") == strings.Join(expected, ","), nil
}
