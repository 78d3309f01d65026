package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    timestamp TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    model TEXT NOT NULL DEFAULT '',
    language TEXT NOT NULL DEFAULT '',
    brief TEXT NOT NULL DEFAULT '',
    resolution REAL NOT NULL DEFAULT 0,
    completeness REAL NOT NULL DEFAULT 0,
    accuracy REAL NOT NULL DEFAULT 0,
    efficiency REAL NOT NULL DEFAULT 0,
    tags TEXT,
    csv_path TEXT NOT NULL DEFAULT '',
    html_path TEXT NOT NULL DEFAULT '',
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS clusters (
    id TEXT NOT NULL,
    record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    name TEXT NOT NULL DEFAULT '',
    keywords TEXT,
    importance REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (record_id, id)
);

CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    name TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    mentions INTEGER NOT NULL DEFAULT 1,
    related_clusters TEXT
);

CREATE TABLE IF NOT EXISTS graph_nodes (
    id TEXT NOT NULL,
    record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    label TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    weight REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (record_id, id)
);

CREATE TABLE IF NOT EXISTS graph_edges (
    id TEXT NOT NULL,
    record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    relationship TEXT NOT NULL DEFAULT '',
    weight REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (record_id, id)
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT NOT NULL,
    record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    role TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    timestamp TEXT NOT NULL DEFAULT '',
    tokens INTEGER NOT NULL DEFAULT 0,
    clusters TEXT,
    sentiment TEXT NOT NULL DEFAULT '',
    intent TEXT NOT NULL DEFAULT '',
    key_points TEXT,
    PRIMARY KEY (record_id, id)
);

CREATE INDEX IF NOT EXISTS idx_clusters_record ON clusters(record_id);
CREATE INDEX IF NOT EXISTS idx_entities_record ON entities(record_id);
CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_graph_nodes_record ON graph_nodes(record_id);
CREATE INDEX IF NOT EXISTS idx_graph_edges_record ON graph_edges(record_id);
CREATE INDEX IF NOT EXISTS idx_messages_record ON messages(record_id);
CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
