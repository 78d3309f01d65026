package database

// Record is the top-level stored representation of one ingested conversation.
type Record struct {
	ID           string   `json:"id"`
	Timestamp    string   `json:"timestamp"`
	Title        string   `json:"title"`
	Model        string   `json:"model"`
	Language     string   `json:"language"`
	Brief        string   `json:"brief"`
	Resolution   float64  `json:"resolution"`
	Completeness float64  `json:"completeness"`
	Accuracy     float64  `json:"accuracy"`
	Efficiency   float64  `json:"efficiency"`
	Tags         []string `json:"tags"`
	CSVPath      string   `json:"csv_path"`
	HTMLPath     string   `json:"html_path"`
	CreatedAt    *string  `json:"created_at"`
}

// Cluster is a named topic grouping scoped to a record.
type Cluster struct {
	ID         string   `json:"id"`
	RecordID   string   `json:"record_id"`
	Name       string   `json:"name"`
	Keywords   []string `json:"keywords"`
	Importance float64  `json:"importance"`
}

// Entity is a named reference extracted from a conversation.
// Identity is scoped to (record id, name), so the same name in two
// records yields two rows.
type Entity struct {
	ID              string   `json:"id"`
	RecordID        string   `json:"record_id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Mentions        int      `json:"mentions"`
	RelatedClusters []string `json:"related_clusters"`
}

// GraphNode is a labeled concept in a record's knowledge graph.
type GraphNode struct {
	ID       string  `json:"id"`
	RecordID string  `json:"record_id"`
	Label    string  `json:"label"`
	Type     string  `json:"type"`
	Weight   float64 `json:"weight"`
}

// GraphEdge is a labeled relationship between two graph nodes.
// Source and Target reference GraphNode.ID within the same record.
type GraphEdge struct {
	ID           string  `json:"id"`
	RecordID     string  `json:"record_id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Relationship string  `json:"relationship"`
	Weight       float64 `json:"weight"`
}

// Message is one stored conversation turn.
type Message struct {
	ID        string   `json:"id"`
	RecordID  string   `json:"record_id"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp string   `json:"timestamp"`
	Tokens    int      `json:"tokens"`
	Clusters  []string `json:"clusters"`
	Sentiment string   `json:"sentiment"`
	Intent    string   `json:"intent"`
	KeyPoints []string `json:"key_points"`
}

// Memoria is a record together with all of its child rows.
type Memoria struct {
	Record   Record      `json:"record"`
	Clusters []Cluster   `json:"clusters"`
	Entities []Entity    `json:"entities"`
	Nodes    []GraphNode `json:"nodes"`
	Edges    []GraphEdge `json:"edges"`
	Messages []Message   `json:"messages"`
}

// EntityMatch is a record matched through one of its entities.
type EntityMatch struct {
	Record     Record `json:"record"`
	EntityName string `json:"entity_name"`
	EntityType string `json:"entity_type"`
	Mentions   int    `json:"mentions"`
}

// ClusterMatch is a record matched through one of its clusters.
type ClusterMatch struct {
	Record      Record   `json:"record"`
	ClusterName string   `json:"cluster_name"`
	Keywords    []string `json:"keywords"`
	Importance  float64  `json:"importance"`
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalMemorias int            `json:"total_memorias"`
	TotalEntities int            `json:"total_entities"`
	TotalClusters int            `json:"total_clusters"`
	TotalMessages int            `json:"total_messages"`
	ModelCounts   map[string]int `json:"model_counts"`
	TopTags       []TagCount     `json:"top_tags"`
}

// TagCount is one tag with its occurrence count across all records.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// GraphData is the node/edge set returned for graph rendering.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// WordWeight is one word-cloud entry.
type WordWeight struct {
	Word   string `json:"word"`
	Weight int    `json:"weight"`
}
