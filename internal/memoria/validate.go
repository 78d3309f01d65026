package memoria

import "time"

// requiredSections lists the top-level sections every document must carry,
// in the order they are checked.
var requiredSections = []string{"metadata", "semantic_structure", "conversation", "summary"}

// Validate checks that all required top-level sections are present.
// It returns a *ValidationError naming the first missing section.
// Metadata id, title, and timestamp are recoverable and are defaulted by
// ApplyDefaults rather than rejected here.
func Validate(doc *Document) error {
	present := map[string]bool{
		"metadata":           doc.Metadata != nil,
		"semantic_structure": doc.Semantic != nil,
		"conversation":       doc.Conversation != nil,
		"summary":            doc.Summary != nil,
	}
	for _, section := range requiredSections {
		if !present[section] {
			return &ValidationError{Section: section}
		}
	}
	return nil
}

// ApplyDefaults fills the recoverable metadata fields: a missing timestamp
// becomes now in RFC 3339; id and title stay empty strings. Call after
// Validate so doc.Metadata is known to be non-nil.
func ApplyDefaults(doc *Document, now time.Time) {
	if doc.Metadata.Timestamp == "" {
		doc.Metadata.Timestamp = now.Format(time.RFC3339)
	}
}
