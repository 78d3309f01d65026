package database

import (
	"fmt"
	"strings"
)

// defaultLimit bounds query results when the caller does not supply a limit.
const defaultLimit = 10

// normalizeLimit applies the default and rejects negative values.
func normalizeLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("invalid limit: %d", limit)
	}
	if limit == 0 {
		return defaultLimit, nil
	}
	return limit, nil
}

// escapeLike neutralizes LIKE wildcards in user input so a query like
// "100%" matches the literal text instead of everything. Pairs with the
// ESCAPE '\' clause on each LIKE below.
var escapeLike = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace

// SearchRecords matches the query as a case-insensitive substring against
// title, brief, or tags, newest first.
func (db *DB) SearchRecords(query string, limit int) ([]Record, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	q := escapeLike(query)
	rows, err := db.conn.Query(
		selectRecord+`
		WHERE title LIKE '%' || ? || '%' ESCAPE '\'
		   OR brief LIKE '%' || ? || '%' ESCAPE '\'
		   OR tags LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY timestamp DESC LIMIT ?`,
		q, q, q, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// SearchByEntity returns records containing an entity whose name matches,
// ordered by mention count descending.
func (db *DB) SearchByEntity(name string, limit int) ([]EntityMatch, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT r.id, r.timestamp, r.title, r.model, r.language, r.brief,
			r.resolution, r.completeness, r.accuracy, r.efficiency, r.tags,
			r.csv_path, r.html_path, r.created_at,
			e.name, e.type, e.mentions
		FROM records r JOIN entities e ON e.record_id = r.id
		WHERE e.name LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY e.mentions DESC LIMIT ?`,
		escapeLike(name), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []EntityMatch
	for rows.Next() {
		var m EntityMatch
		var tags *string
		if err := rows.Scan(&m.Record.ID, &m.Record.Timestamp, &m.Record.Title, &m.Record.Model,
			&m.Record.Language, &m.Record.Brief, &m.Record.Resolution, &m.Record.Completeness,
			&m.Record.Accuracy, &m.Record.Efficiency, &tags, &m.Record.CSVPath,
			&m.Record.HTMLPath, &m.Record.CreatedAt,
			&m.EntityName, &m.EntityType, &m.Mentions); err != nil {
			return nil, err
		}
		m.Record.Tags = unmarshalList(tags)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SearchByCluster returns records containing a cluster whose name or
// keywords match, ordered by importance descending.
func (db *DB) SearchByCluster(topic string, limit int) ([]ClusterMatch, error) {
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT r.id, r.timestamp, r.title, r.model, r.language, r.brief,
			r.resolution, r.completeness, r.accuracy, r.efficiency, r.tags,
			r.csv_path, r.html_path, r.created_at,
			c.name, c.keywords, c.importance
		FROM records r JOIN clusters c ON c.record_id = r.id
		WHERE c.name LIKE '%' || ? || '%' ESCAPE '\'
		   OR c.keywords LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY c.importance DESC LIMIT ?`,
		escapeLike(topic), escapeLike(topic), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []ClusterMatch
	for rows.Next() {
		var m ClusterMatch
		var tags, keywords *string
		if err := rows.Scan(&m.Record.ID, &m.Record.Timestamp, &m.Record.Title, &m.Record.Model,
			&m.Record.Language, &m.Record.Brief, &m.Record.Resolution, &m.Record.Completeness,
			&m.Record.Accuracy, &m.Record.Efficiency, &tags, &m.Record.CSVPath,
			&m.Record.HTMLPath, &m.Record.CreatedAt,
			&m.ClusterName, &keywords, &m.Importance); err != nil {
			return nil, err
		}
		m.Record.Tags = unmarshalList(tags)
		m.Keywords = unmarshalList(keywords)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
