package database

import (
	"database/sql"
	"fmt"
)

// SaveMemoria upserts the record row and replaces all of its child rows in
// one transaction. Either everything lands or nothing does, so a failed
// ingestion never leaves a half-written record behind.
func (db *DB) SaveMemoria(m *Memoria) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	tags, err := marshalList(m.Record.Tags)
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO records
		(id, timestamp, title, model, language, brief, resolution, completeness, accuracy, efficiency, tags, csv_path, html_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Record.ID, m.Record.Timestamp, m.Record.Title, m.Record.Model, m.Record.Language,
		m.Record.Brief, m.Record.Resolution, m.Record.Completeness, m.Record.Accuracy,
		m.Record.Efficiency, tags, m.Record.CSVPath, m.Record.HTMLPath,
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}

	// INSERT OR REPLACE re-creates the row; clear any children from a
	// previous ingestion of the same id before writing the new set.
	for _, table := range []string{"clusters", "entities", "graph_nodes", "graph_edges", "messages"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE record_id = ?", m.Record.ID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, c := range m.Clusters {
		keywords, err := marshalList(c.Keywords)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO clusters (id, record_id, name, keywords, importance)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, m.Record.ID, c.Name, keywords, c.Importance,
		)
		if err != nil {
			return fmt.Errorf("inserting cluster %q: %w", c.Name, err)
		}
	}

	for _, e := range m.Entities {
		related, err := marshalList(e.RelatedClusters)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO entities (id, record_id, name, type, mentions, related_clusters)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, m.Record.ID, e.Name, e.Type, e.Mentions, related,
		)
		if err != nil {
			return fmt.Errorf("inserting entity %q: %w", e.Name, err)
		}
	}

	for _, n := range m.Nodes {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO graph_nodes (id, record_id, label, type, weight)
			VALUES (?, ?, ?, ?, ?)`,
			n.ID, m.Record.ID, n.Label, n.Type, n.Weight,
		)
		if err != nil {
			return fmt.Errorf("inserting node %q: %w", n.ID, err)
		}
	}

	for _, e := range m.Edges {
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO graph_edges (id, record_id, source, target, relationship, weight)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, m.Record.ID, e.Source, e.Target, e.Relationship, e.Weight,
		)
		if err != nil {
			return fmt.Errorf("inserting edge %q: %w", e.ID, err)
		}
	}

	for _, msg := range m.Messages {
		clusters, err := marshalList(msg.Clusters)
		if err != nil {
			return err
		}
		keyPoints, err := marshalList(msg.KeyPoints)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT OR REPLACE INTO messages
			(id, record_id, role, content, timestamp, tokens, clusters, sentiment, intent, key_points)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			msg.ID, m.Record.ID, msg.Role, msg.Content, msg.Timestamp, msg.Tokens,
			clusters, msg.Sentiment, msg.Intent, keyPoints,
		)
		if err != nil {
			return fmt.Errorf("inserting message %q: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// UpdateRecordPaths backfills the export file paths after rendering.
func (db *DB) UpdateRecordPaths(recordID, csvPath, htmlPath string) error {
	_, err := db.conn.Exec(
		"UPDATE records SET csv_path = ?, html_path = ? WHERE id = ?",
		csvPath, htmlPath, recordID,
	)
	return err
}

// GetRecord returns the record row for an id, or nil if it does not exist.
func (db *DB) GetRecord(recordID string) (*Record, error) {
	row := db.conn.QueryRow(selectRecord+" WHERE id = ?", recordID)
	r, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetMemoria returns a record with all of its child rows, or nil if the id
// does not exist.
func (db *DB) GetMemoria(recordID string) (*Memoria, error) {
	record, err := db.GetRecord(recordID)
	if err != nil || record == nil {
		return nil, err
	}

	m := &Memoria{Record: *record}

	rows, err := db.conn.Query(
		"SELECT id, record_id, name, keywords, importance FROM clusters WHERE record_id = ? ORDER BY importance DESC",
		recordID,
	)
	if err != nil {
		return nil, err
	}
	m.Clusters, err = scanClusters(rows)
	if err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		"SELECT id, record_id, name, type, mentions, related_clusters FROM entities WHERE record_id = ? ORDER BY mentions DESC",
		recordID,
	)
	if err != nil {
		return nil, err
	}
	m.Entities, err = scanEntities(rows)
	if err != nil {
		return nil, err
	}

	graph, err := db.GetGraphData(recordID)
	if err != nil {
		return nil, err
	}
	m.Nodes = graph.Nodes
	m.Edges = graph.Edges

	rows, err = db.conn.Query(
		`SELECT id, record_id, role, content, timestamp, tokens, clusters, sentiment, intent, key_points
		FROM messages WHERE record_id = ? ORDER BY timestamp, id`,
		recordID,
	)
	if err != nil {
		return nil, err
	}
	m.Messages, err = scanMessages(rows)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// GetAllRecords returns all record rows ordered by timestamp descending.
func (db *DB) GetAllRecords() ([]Record, error) {
	rows, err := db.conn.Query(selectRecord + " ORDER BY timestamp DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

const selectRecord = `SELECT id, timestamp, title, model, language, brief,
	resolution, completeness, accuracy, efficiency, tags, csv_path, html_path, created_at
	FROM records`

func scanRecordRow(row *sql.Row) (*Record, error) {
	var r Record
	var tags *string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Title, &r.Model, &r.Language, &r.Brief,
		&r.Resolution, &r.Completeness, &r.Accuracy, &r.Efficiency, &tags,
		&r.CSVPath, &r.HTMLPath, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Tags = unmarshalList(tags)
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var tags *string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Title, &r.Model, &r.Language, &r.Brief,
			&r.Resolution, &r.Completeness, &r.Accuracy, &r.Efficiency, &tags,
			&r.CSVPath, &r.HTMLPath, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Tags = unmarshalList(tags)
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanClusters(rows *sql.Rows) ([]Cluster, error) {
	defer rows.Close()
	var clusters []Cluster
	for rows.Next() {
		var c Cluster
		var keywords *string
		if err := rows.Scan(&c.ID, &c.RecordID, &c.Name, &keywords, &c.Importance); err != nil {
			return nil, err
		}
		c.Keywords = unmarshalList(keywords)
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

func scanEntities(rows *sql.Rows) ([]Entity, error) {
	defer rows.Close()
	var entities []Entity
	for rows.Next() {
		var e Entity
		var related *string
		if err := rows.Scan(&e.ID, &e.RecordID, &e.Name, &e.Type, &e.Mentions, &related); err != nil {
			return nil, err
		}
		e.RelatedClusters = unmarshalList(related)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()
	var messages []Message
	for rows.Next() {
		var msg Message
		var clusters, keyPoints *string
		if err := rows.Scan(&msg.ID, &msg.RecordID, &msg.Role, &msg.Content, &msg.Timestamp,
			&msg.Tokens, &clusters, &msg.Sentiment, &msg.Intent, &keyPoints); err != nil {
			return nil, err
		}
		msg.Clusters = unmarshalList(clusters)
		msg.KeyPoints = unmarshalList(keyPoints)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
