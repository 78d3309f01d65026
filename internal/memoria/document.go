package memoria

// Document is one parsed chat memory template. The four section pointers
// distinguish "section absent" from "section empty" during validation.
type Document struct {
	Metadata     *Metadata          `json:"metadata"`
	Semantic     *SemanticStructure `json:"semantic_structure"`
	Conversation *Conversation      `json:"conversation"`
	Summary      *Summary           `json:"summary"`
	Metrics      *Metrics           `json:"metrics,omitempty"`
}

// Metadata describes the conversation the document was captured from.
type Metadata struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Timestamp string   `json:"timestamp"`
	Model     string   `json:"model"`
	Language  string   `json:"language"`
	Tags      []string `json:"tags"`
}

// SemanticStructure holds the precomputed semantic annotations.
type SemanticStructure struct {
	TopicClusters  []TopicCluster `json:"topic_clusters"`
	Entities       []Entity       `json:"entities"`
	KnowledgeGraph KnowledgeGraph `json:"knowledge_graph"`
}

// TopicCluster is a named topic grouping with keywords and an importance weight.
type TopicCluster struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Keywords   []string `json:"keywords"`
	Importance float64  `json:"importance"`
}

// Entity is a named reference extracted from the conversation.
type Entity struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Mentions        int      `json:"mentions"`
	RelatedClusters []string `json:"related_clusters"`
}

// KnowledgeGraph is the record-scoped concept graph.
type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is a labeled concept in the knowledge graph.
type GraphNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// GraphEdge is a labeled relationship between two graph nodes.
type GraphEdge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Relationship string  `json:"relationship"`
	Weight       float64 `json:"weight"`
}

// Conversation holds the transcript and any attached artifacts.
type Conversation struct {
	Messages  []Message  `json:"messages"`
	Artifacts []Artifact `json:"artifacts"`
}

// Message is one turn of the conversation.
type Message struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	Tokens    int      `json:"tokens"`
	Clusters  []string `json:"clusters"`
	Sentiment string   `json:"sentiment"`
	Intent    string   `json:"intent"`
	KeyPoints []string `json:"key_points"`
}

// Artifact is a named output produced during the conversation.
type Artifact struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Summary is the precomputed digest of the conversation.
type Summary struct {
	Brief         string         `json:"brief"`
	KeyInsights   []string       `json:"key_insights"`
	ActionItems   []string       `json:"action_items"`
	Entities      []Entity       `json:"entities"`
	TopicClusters []TopicCluster `json:"topic_clusters"`
}

// Metrics are the four conversation quality scores, each in [0,1].
type Metrics struct {
	Resolution   float64 `json:"resolution"`
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Efficiency   float64 `json:"efficiency"`
}
