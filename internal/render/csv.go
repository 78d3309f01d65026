package render

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rfcarvalho/memoria/internal/memoria"
)

var recordHeader = []string{
	"id", "timestamp", "title", "model", "language", "brief",
	"resolution", "completeness", "accuracy", "efficiency",
	"tags", "messages", "entities", "clusters",
}

// WriteRecordCSV writes the one-row CSV snapshot for a document into dir
// and returns the written path.
func WriteRecordCSV(dir string, doc *memoria.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating records directory: %w", err)
	}

	path := filepath.Join(dir, fileName(doc.Metadata.ID)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv snapshot: %w", err)
	}
	defer f.Close()

	var metrics memoria.Metrics
	if doc.Metrics != nil {
		metrics = *doc.Metrics
	}

	w := csv.NewWriter(f)
	if err := w.Write(recordHeader); err != nil {
		return "", err
	}
	row := []string{
		doc.Metadata.ID,
		doc.Metadata.Timestamp,
		doc.Metadata.Title,
		doc.Metadata.Model,
		doc.Metadata.Language,
		doc.Summary.Brief,
		score(metrics.Resolution),
		score(metrics.Completeness),
		score(metrics.Accuracy),
		score(metrics.Efficiency),
		strings.Join(doc.Metadata.Tags, ","),
		strconv.Itoa(len(doc.Conversation.Messages)),
		strconv.Itoa(len(doc.Semantic.Entities)),
		strconv.Itoa(len(doc.Semantic.TopicClusters)),
	}
	if err := w.Write(row); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
