// Package ingest turns validated chat memory documents into database rows
// and static export files.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rfcarvalho/memoria/internal/database"
	"github.com/rfcarvalho/memoria/internal/memoria"
	"github.com/rfcarvalho/memoria/internal/render"
)

// Processor ingests chat memory documents. Writes are serialized through
// a mutex so two concurrent ingestions of the same id cannot interleave.
type Processor struct {
	db         *database.DB
	recordsDir string
	indexPath  string
	mu         sync.Mutex
	now        func() time.Time
}

// New creates a Processor writing export files to recordsDir and the
// generated index page to indexPath.
func New(db *database.DB, recordsDir, indexPath string) *Processor {
	return &Processor{db: db, recordsDir: recordsDir, indexPath: indexPath, now: time.Now}
}

// Ingest parses and ingests a raw JSON document, returning the record id.
func (p *Processor) Ingest(data []byte) (string, error) {
	var doc memoria.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", &memoria.ParseError{Err: err}
	}
	return p.IngestDocument(&doc)
}

// IngestDocument validates and ingests a parsed document, returning the
// record id. The database writes for one document happen in a single
// transaction; the export files and index page are produced afterwards
// from the same in-memory document.
func (p *Processor) IngestDocument(doc *memoria.Document) (string, error) {
	if err := memoria.Validate(doc); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	memoria.ApplyDefaults(doc, p.now())
	if doc.Metadata.ID == "" {
		// Write the synthesized id back so the exports and the returned
		// id agree.
		doc.Metadata.ID = newToken()
	}
	recordID := doc.Metadata.ID

	if err := p.db.SaveMemoria(toMemoria(doc)); err != nil {
		return "", &memoria.StorageError{Op: "saving memoria", Err: err}
	}

	csvPath, err := render.WriteRecordCSV(p.recordsDir, doc)
	if err != nil {
		return "", err
	}
	htmlPath, err := render.WriteRecordHTML(p.recordsDir, doc)
	if err != nil {
		return "", err
	}
	if err := p.db.UpdateRecordPaths(recordID, csvPath, htmlPath); err != nil {
		return "", &memoria.StorageError{Op: "updating export paths", Err: err}
	}

	if err := p.RefreshIndex(); err != nil {
		// The record itself is safely stored; a stale index page is not
		// worth failing the ingestion over.
		log.Printf("refreshing index after %s: %v", recordID, err)
	}

	return recordID, nil
}

// IngestFile ingests one JSON file from disk.
func (p *Processor) IngestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Ingest(data)
}

// FileResult is the outcome of ingesting one file from a directory.
type FileResult struct {
	Path     string
	RecordID string
	Err      error
}

// IngestDir ingests every .json file in a directory, skipping everything
// else. Per-file failures are reported in the results, not returned.
func (p *Processor) IngestDir(dir string) ([]FileResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var results []FileResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		id, err := p.IngestFile(path)
		results = append(results, FileResult{Path: path, RecordID: id, Err: err})
	}
	return results, nil
}

// Get returns a stored memoria with all child rows, or memoria.ErrNotFound.
func (p *Processor) Get(recordID string) (*database.Memoria, error) {
	m, err := p.db.GetMemoria(recordID)
	if err != nil {
		return nil, &memoria.StorageError{Op: "loading memoria", Err: err}
	}
	if m == nil {
		return nil, memoria.ErrNotFound
	}
	return m, nil
}

// RefreshIndex regenerates the index page from the current record set.
func (p *Processor) RefreshIndex() error {
	records, err := p.db.GetAllRecords()
	if err != nil {
		return err
	}
	return render.WriteIndex(p.indexPath, records)
}

// IndexPath returns the path of the generated index page.
func (p *Processor) IndexPath() string {
	return p.indexPath
}

// RecordsDir returns the directory holding per-record export files.
func (p *Processor) RecordsDir() string {
	return p.recordsDir
}

// toMemoria flattens a document into database rows, synthesizing the ids
// the document does not supply.
func toMemoria(doc *memoria.Document) *database.Memoria {
	recordID := doc.Metadata.ID

	m := &database.Memoria{
		Record: database.Record{
			ID:        recordID,
			Timestamp: doc.Metadata.Timestamp,
			Title:     doc.Metadata.Title,
			Model:     doc.Metadata.Model,
			Language:  doc.Metadata.Language,
			Brief:     doc.Summary.Brief,
			Tags:      doc.Metadata.Tags,
		},
	}
	if doc.Metrics != nil {
		m.Record.Resolution = doc.Metrics.Resolution
		m.Record.Completeness = doc.Metrics.Completeness
		m.Record.Accuracy = doc.Metrics.Accuracy
		m.Record.Efficiency = doc.Metrics.Efficiency
	}

	for _, c := range doc.Semantic.TopicClusters {
		id := c.ID
		if id == "" {
			id = newToken()
		}
		m.Clusters = append(m.Clusters, database.Cluster{
			ID:         id,
			RecordID:   recordID,
			Name:       c.Name,
			Keywords:   c.Keywords,
			Importance: c.Importance,
		})
	}

	for _, e := range doc.Semantic.Entities {
		mentions := e.Mentions
		if mentions == 0 {
			mentions = 1
		}
		m.Entities = append(m.Entities, database.Entity{
			ID:              entityID(recordID, e.Name),
			RecordID:        recordID,
			Name:            e.Name,
			Type:            e.Type,
			Mentions:        mentions,
			RelatedClusters: e.RelatedClusters,
		})
	}

	for _, n := range doc.Semantic.KnowledgeGraph.Nodes {
		m.Nodes = append(m.Nodes, database.GraphNode{
			ID:       n.ID,
			RecordID: recordID,
			Label:    n.Label,
			Type:     n.Type,
			Weight:   n.Weight,
		})
	}

	for i, e := range doc.Semantic.KnowledgeGraph.Edges {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("%s_edge_%d", recordID, i)
		}
		m.Edges = append(m.Edges, database.GraphEdge{
			ID:           id,
			RecordID:     recordID,
			Source:       e.Source,
			Target:       e.Target,
			Relationship: e.Relationship,
			Weight:       e.Weight,
		})
	}

	for _, msg := range doc.Conversation.Messages {
		id := msg.ID
		if id == "" {
			id = newToken()
		}
		m.Messages = append(m.Messages, database.Message{
			ID:        id,
			RecordID:  recordID,
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Tokens:    msg.Tokens,
			Clusters:  msg.Clusters,
			Sentiment: msg.Sentiment,
			Intent:    msg.Intent,
			KeyPoints: msg.KeyPoints,
		})
	}

	return m
}

// entityID derives a deterministic entity id scoped to (record id, name),
// so re-ingesting a record is idempotent and the same entity name in two
// records never collides.
func entityID(recordID, name string) string {
	sum := sha256.Sum256([]byte(recordID + "\x00" + name))
	return hex.EncodeToString(sum[:8])
}

func newToken() string {
	return uuid.NewString()
}
