package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleMemoria(id, title, timestamp string) *Memoria {
	return &Memoria{
		Record: Record{
			ID:        id,
			Timestamp: timestamp,
			Title:     title,
			Model:     "claude-3",
			Language:  "pt-br",
			Brief:     "A conversation about machine learning.",
			Tags:      []string{"ai", "ml"},
		},
		Clusters: []Cluster{
			{ID: id + "_c1", RecordID: id, Name: "AI", Keywords: []string{"ml", "llm"}, Importance: 0.8},
		},
		Entities: []Entity{
			{ID: id + "_e1", RecordID: id, Name: "GPT", Type: "technology", Mentions: 3},
		},
		Nodes: []GraphNode{
			{ID: "n1", RecordID: id, Label: "AI", Type: "concept", Weight: 1.0},
			{ID: "n2", RecordID: id, Label: "GPT", Type: "technology", Weight: 0.5},
		},
		Edges: []GraphEdge{
			{ID: id + "_edge_0", RecordID: id, Source: "n1", Target: "n2", Relationship: "includes", Weight: 0.7},
		},
		Messages: []Message{
			{ID: id + "_m1", RecordID: id, Role: "human", Content: "What is ML?", Timestamp: timestamp, Tokens: 5},
			{ID: id + "_m2", RecordID: id, Role: "assistant", Content: "Machine learning is...", Timestamp: timestamp, Tokens: 20},
		},
	}
}

func TestOpenCreatesNestedDirAndAppliesPragmas(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "deep", "test.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	var timeout int
	if err := db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", timeout)
	}

	var fk int
	if err := db.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Error("expected foreign keys enabled")
	}
}

func TestOpenRejectsForeignRecordsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// A records table from an earlier external tool: same name, different
	// columns. It must not be stamped and migrated over.
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening raw db: %v", err)
	}
	_, err = conn.Exec(`CREATE TABLE records (
		id TEXT PRIMARY KEY,
		conversation_title TEXT,
		summary TEXT,
		tags TEXT
	)`)
	conn.Close()
	if err != nil {
		t.Fatalf("creating foreign table: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening database with foreign records schema")
	}
}

func TestOpenRecoversUnstampedSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.SaveMemoria(sampleMemoria("chat_1", "Kept", "2026-02-06T10:00:00Z"))
	db.Close()

	// Simulate a crash between the migration commit and the version write.
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening raw db: %v", err)
	}
	if _, err := conn.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("clearing version: %v", err)
	}
	conn.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("expected recovery of unstamped schema, got %v", err)
	}
	defer db.Close()

	var version int
	db.conn.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Errorf("expected version restamped to 1, got %d", version)
	}
	r, _ := db.GetRecord("chat_1")
	if r == nil || r.Title != "Kept" {
		t.Errorf("expected existing data preserved, got %+v", r)
	}
}

func TestSaveAndGetMemoria(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMemoria(sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := db.GetMemoria("chat_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected memoria")
	}
	if m.Record.Title != "Test" {
		t.Errorf("expected title 'Test', got %q", m.Record.Title)
	}
	if len(m.Clusters) != 1 || len(m.Entities) != 1 || len(m.Nodes) != 2 || len(m.Edges) != 1 || len(m.Messages) != 2 {
		t.Errorf("unexpected child counts: %d clusters, %d entities, %d nodes, %d edges, %d messages",
			len(m.Clusters), len(m.Entities), len(m.Nodes), len(m.Edges), len(m.Messages))
	}
	if len(m.Clusters[0].Keywords) != 2 || m.Clusters[0].Keywords[0] != "ml" {
		t.Errorf("expected keywords to round-trip, got %v", m.Clusters[0].Keywords)
	}
}

func TestGetMemoriaMissing(t *testing.T) {
	db := openTestDB(t)
	m, err := db.GetMemoria("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Error("expected nil for missing record")
	}
}

func TestSaveMemoriaUpsertReplaces(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "First", "2026-02-06T10:00:00Z"))

	second := sampleMemoria("chat_1", "Second", "2026-02-06T11:00:00Z")
	second.Entities = nil
	if err := db.SaveMemoria(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, _ := db.GetAllRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 record after re-ingest, got %d", len(records))
	}
	if records[0].Title != "Second" {
		t.Errorf("expected title 'Second', got %q", records[0].Title)
	}

	m, _ := db.GetMemoria("chat_1")
	if len(m.Entities) != 0 {
		t.Errorf("expected old entities cleared, got %d", len(m.Entities))
	}
}

func TestTagsWithCommasRoundTrip(t *testing.T) {
	db := openTestDB(t)
	m := sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z")
	m.Record.Tags = []string{"a,b", "c"}
	db.SaveMemoria(m)

	r, _ := db.GetRecord("chat_1")
	if len(r.Tags) != 2 || r.Tags[0] != "a,b" {
		t.Errorf("expected tags to round-trip with commas, got %v", r.Tags)
	}
}

func TestSearchRecords(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "Machine Learning Intro", "2026-02-05T10:00:00Z"))
	db.SaveMemoria(sampleMemoria("chat_2", "Cooking Pasta", "2026-02-06T10:00:00Z"))

	results, err := db.SearchRecords("machine", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "machine" matches the title of chat_1 and the brief of both.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "chat_2" {
		t.Errorf("expected newest first, got %q", results[0].ID)
	}

	results, _ = db.SearchRecords("pasta", 0)
	if len(results) != 1 || results[0].ID != "chat_2" {
		t.Errorf("expected only chat_2 for 'pasta', got %v", results)
	}
}

func TestSearchRecordsByTag(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z"))

	results, err := db.SearchRecords("ml", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected tag match, got %d results", len(results))
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	db := openTestDB(t)
	m1 := sampleMemoria("chat_1", "100% finished", "2026-02-05T10:00:00Z")
	m1.Record.Brief = "Done."
	m2 := sampleMemoria("chat_2", "100x speedup", "2026-02-06T10:00:00Z")
	m2.Record.Brief = "Fast."
	db.SaveMemoria(m1)
	db.SaveMemoria(m2)

	// Unescaped, "100%" would match both titles.
	results, err := db.SearchRecords("100%", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "chat_1" {
		t.Errorf("expected only the literal match, got %v", results)
	}

	// "_" is a single-character wildcard in LIKE; no title here contains
	// a literal underscore.
	results, _ = db.SearchRecords("100_", 0)
	if len(results) != 0 {
		t.Errorf("expected no matches for literal underscore, got %v", results)
	}
}

func TestSearchByEntityWildcardsLiteral(t *testing.T) {
	db := openTestDB(t)
	m := sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z")
	m.Entities = []Entity{
		{ID: "chat_1_e1", RecordID: "chat_1", Name: "snake_case", Mentions: 2},
		{ID: "chat_1_e2", RecordID: "chat_1", Name: "snakeXcase", Mentions: 1},
	}
	db.SaveMemoria(m)

	matches, err := db.SearchByEntity("snake_", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].EntityName != "snake_case" {
		t.Errorf("expected only the literal underscore match, got %+v", matches)
	}
}

func TestSearchNegativeLimit(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SearchRecords("x", -1); err == nil {
		t.Error("expected error for negative limit")
	}
	if _, err := db.SearchByEntity("x", -1); err == nil {
		t.Error("expected error for negative limit")
	}
	if _, err := db.SearchByCluster("x", -1); err == nil {
		t.Error("expected error for negative limit")
	}
}

func TestSearchByEntity(t *testing.T) {
	db := openTestDB(t)
	m1 := sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z")
	m1.Entities = []Entity{{ID: "chat_1_e1", RecordID: "chat_1", Name: "Python", Type: "technology", Mentions: 2}}
	m2 := sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z")
	m2.Entities = []Entity{{ID: "chat_2_e1", RecordID: "chat_2", Name: "Python", Type: "technology", Mentions: 5}}
	db.SaveMemoria(m1)
	db.SaveMemoria(m2)

	matches, err := db.SearchByEntity("python", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Mentions != 5 || matches[0].Record.ID != "chat_2" {
		t.Errorf("expected highest mentions first, got %+v", matches[0])
	}
}

func TestSearchByCluster(t *testing.T) {
	db := openTestDB(t)
	m1 := sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z")
	m2 := sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z")
	m2.Clusters[0].Importance = 0.3
	db.SaveMemoria(m1)
	db.SaveMemoria(m2)

	matches, err := db.SearchByCluster("ai", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Importance > matches[i-1].Importance {
			t.Errorf("expected non-increasing importance, got %v then %v",
				matches[i-1].Importance, matches[i].Importance)
		}
	}

	// Keyword match
	matches, _ = db.SearchByCluster("llm", 10)
	if len(matches) != 2 {
		t.Errorf("expected keyword match, got %d results", len(matches))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalMemorias != 0 {
		t.Errorf("expected 0 records, got %d", stats.TotalMemorias)
	}

	db.SaveMemoria(sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z"))
	m2 := sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z")
	m2.Record.Model = "gpt-4"
	m2.Record.Tags = []string{"ai", "cooking"}
	db.SaveMemoria(m2)

	stats, _ = db.GetStats()
	if stats.TotalMemorias != 2 {
		t.Errorf("expected 2 records, got %d", stats.TotalMemorias)
	}
	if stats.TotalEntities != 2 {
		t.Errorf("expected 2 entities, got %d", stats.TotalEntities)
	}
	if stats.TotalMessages != 4 {
		t.Errorf("expected 4 messages, got %d", stats.TotalMessages)
	}
	if stats.ModelCounts["claude-3"] != 1 || stats.ModelCounts["gpt-4"] != 1 {
		t.Errorf("unexpected model counts: %v", stats.ModelCounts)
	}
	if len(stats.TopTags) == 0 || stats.TopTags[0].Tag != "ai" || stats.TopTags[0].Count != 2 {
		t.Errorf("expected 'ai' as top tag, got %v", stats.TopTags)
	}
}

func TestTopTagsTieBreakLexical(t *testing.T) {
	db := openTestDB(t)
	m := sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z")
	m.Record.Tags = []string{"zebra", "apple"}
	db.SaveMemoria(m)

	stats, _ := db.GetStats()
	if len(stats.TopTags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(stats.TopTags))
	}
	if stats.TopTags[0].Tag != "apple" {
		t.Errorf("expected lexical tie-break, got %q first", stats.TopTags[0].Tag)
	}
}

func TestGetGraphData(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z"))
	db.SaveMemoria(sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z"))

	all, err := db.GetGraphData("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Nodes) != 4 || len(all.Edges) != 2 {
		t.Errorf("expected aggregate graph with 4 nodes / 2 edges, got %d / %d",
			len(all.Nodes), len(all.Edges))
	}

	one, _ := db.GetGraphData("chat_1")
	if len(one.Nodes) != 2 || len(one.Edges) != 1 {
		t.Errorf("expected filtered graph with 2 nodes / 1 edge, got %d / %d",
			len(one.Nodes), len(one.Edges))
	}
	for _, n := range one.Nodes {
		if n.RecordID != "chat_1" {
			t.Errorf("expected only chat_1 nodes, got %q", n.RecordID)
		}
	}
}

func TestGetWordCloudData(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z"))

	words, err := db.GetWordCloudData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	weights := map[string]int{}
	for _, w := range words {
		weights[w.Word] = w.Weight
	}
	if weights["GPT"] < 3 {
		t.Errorf("expected GPT weight >= 3, got %d", weights["GPT"])
	}
	if weights["ml"] < 5 || weights["llm"] < 5 {
		t.Errorf("expected keyword weights >= 5, got ml=%d llm=%d", weights["ml"], weights["llm"])
	}
}

func TestWordCloudSumsEntityMentionsAcrossRecords(t *testing.T) {
	db := openTestDB(t)
	m1 := sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z")
	m1.Entities = []Entity{{ID: "chat_1_e1", RecordID: "chat_1", Name: "Python", Mentions: 2}}
	m2 := sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z")
	m2.Entities = []Entity{{ID: "chat_2_e1", RecordID: "chat_2", Name: "Python", Mentions: 5}}
	db.SaveMemoria(m1)
	db.SaveMemoria(m2)

	words, _ := db.GetWordCloudData()
	for _, w := range words {
		if w.Word == "Python" {
			if w.Weight != 7 {
				t.Errorf("expected Python weight 7, got %d", w.Weight)
			}
			return
		}
	}
	t.Error("expected Python in word cloud")
}

func TestChildIDsScopedToRecord(t *testing.T) {
	db := openTestDB(t)

	// Two documents reusing the same message/cluster/edge ids must not
	// steal each other's rows.
	a := sampleMemoria("chat_a", "A", "2026-02-05T10:00:00Z")
	a.Clusters[0].ID = "c1"
	a.Edges[0].ID = "e1"
	a.Messages = a.Messages[:1]
	a.Messages[0].ID = "m1"
	a.Messages[0].Content = "from A"

	b := sampleMemoria("chat_b", "B", "2026-02-06T10:00:00Z")
	b.Clusters[0].ID = "c1"
	b.Edges[0].ID = "e1"
	b.Messages = b.Messages[:1]
	b.Messages[0].ID = "m1"
	b.Messages[0].Content = "from B"

	if err := db.SaveMemoria(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.SaveMemoria(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ma, _ := db.GetMemoria("chat_a")
	if len(ma.Messages) != 1 || ma.Messages[0].Content != "from A" {
		t.Errorf("expected chat_a to keep its message, got %+v", ma.Messages)
	}
	if len(ma.Clusters) != 1 || len(ma.Edges) != 1 {
		t.Errorf("expected chat_a to keep cluster and edge, got %d / %d",
			len(ma.Clusters), len(ma.Edges))
	}

	mb, _ := db.GetMemoria("chat_b")
	if len(mb.Messages) != 1 || mb.Messages[0].Content != "from B" {
		t.Errorf("expected chat_b to keep its message, got %+v", mb.Messages)
	}
}

func TestUpdateRecordPaths(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "Test", "2026-02-06T10:00:00Z"))

	if err := db.UpdateRecordPaths("chat_1", "records/chat_1.csv", "records/chat_1.html"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := db.GetRecord("chat_1")
	if r.CSVPath != "records/chat_1.csv" || r.HTMLPath != "records/chat_1.html" {
		t.Errorf("expected paths backfilled, got %q / %q", r.CSVPath, r.HTMLPath)
	}
}

func TestExportAll(t *testing.T) {
	db := openTestDB(t)
	db.SaveMemoria(sampleMemoria("chat_1", "First", "2026-02-05T10:00:00Z"))
	db.SaveMemoria(sampleMemoria("chat_2", "Second", "2026-02-06T10:00:00Z"))

	path := filepath.Join(t.TempDir(), "export.csv")
	count, err := db.ExportAll(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 exported records, got %d", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "id,timestamp,title") {
		t.Errorf("expected header row, got %q", content[:40])
	}
	if !strings.Contains(content, "chat_1") || !strings.Contains(content, "chat_2") {
		t.Error("expected both records in export")
	}
}
