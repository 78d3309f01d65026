// Package render produces the static export artifacts for ingested
// memorias: one HTML view and one CSV snapshot per record, plus the
// generated index page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/rfcarvalho/memoria/internal/database"
	"github.com/rfcarvalho/memoria/internal/memoria"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"join":     func(values []string) string { return strings.Join(values, ", ") },
	"base":     filepath.Base,
}

var (
	recordTmpl = template.Must(
		template.New("record.html").Funcs(funcMap).ParseFS(templateFS, "templates/record.html"),
	)
	indexTmpl = template.Must(
		template.New("index.html").Funcs(funcMap).ParseFS(templateFS, "templates/index.html"),
	)
)

// WriteRecordHTML renders the HTML view for a document into dir and returns
// the written path.
func WriteRecordHTML(dir string, doc *memoria.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating records directory: %w", err)
	}

	path := filepath.Join(dir, fileName(doc.Metadata.ID)+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating html view: %w", err)
	}
	defer f.Close()

	if err := recordTmpl.Execute(f, doc); err != nil {
		return "", fmt.Errorf("rendering html view: %w", err)
	}
	return path, nil
}

// WriteIndex renders the index page listing all records, newest first.
func WriteIndex(path string, records []database.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating index page: %w", err)
	}
	defer f.Close()

	data := struct {
		Records []database.Record
		Total   int
	}{Records: records, Total: len(records)}

	if err := indexTmpl.Execute(f, data); err != nil {
		return fmt.Errorf("rendering index page: %w", err)
	}
	return nil
}

// fileName makes a record id safe to use as a file name.
func fileName(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.', ' ':
			return '-'
		}
		return r
	}, id)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}
