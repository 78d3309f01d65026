package database

import "sort"

// keywordWeight is the fixed word-cloud contribution of one cluster
// keyword occurrence.
const keywordWeight = 5

// topEntityCount bounds how many entities feed the word cloud.
const topEntityCount = 100

// GetGraphData returns the knowledge graph for one record, or for all
// records when recordID is empty (aggregate mode).
func (db *DB) GetGraphData(recordID string) (*GraphData, error) {
	nodeQuery := "SELECT id, record_id, label, type, weight FROM graph_nodes"
	edgeQuery := "SELECT id, record_id, source, target, relationship, weight FROM graph_edges"
	var args []any
	if recordID != "" {
		nodeQuery += " WHERE record_id = ?"
		edgeQuery += " WHERE record_id = ?"
		args = append(args, recordID)
	}
	nodeQuery += " ORDER BY record_id, id"
	edgeQuery += " ORDER BY record_id, id"

	data := &GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	rows, err := db.conn.Query(nodeQuery, args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var n GraphNode
		if err := rows.Scan(&n.ID, &n.RecordID, &n.Label, &n.Type, &n.Weight); err != nil {
			rows.Close()
			return nil, err
		}
		data.Nodes = append(data.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.conn.Query(edgeQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e GraphEdge
		if err := rows.Scan(&e.ID, &e.RecordID, &e.Source, &e.Target, &e.Relationship, &e.Weight); err != nil {
			return nil, err
		}
		data.Edges = append(data.Edges, e)
	}
	return data, rows.Err()
}

// GetWordCloudData merges entity mention counts (summed by name across all
// records, top 100) with cluster keywords (each occurrence weighs 5),
// sorted by weight descending then word ascending.
func (db *DB) GetWordCloudData() ([]WordWeight, error) {
	weights := map[string]int{}

	rows, err := db.conn.Query(
		`SELECT name, SUM(mentions) FROM entities
		GROUP BY name ORDER BY SUM(mentions) DESC, name LIMIT ?`,
		topEntityCount,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		var mentions int
		if err := rows.Scan(&name, &mentions); err != nil {
			rows.Close()
			return nil, err
		}
		weights[name] += mentions
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = db.conn.Query("SELECT keywords FROM clusters WHERE keywords IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var keywords *string
		if err := rows.Scan(&keywords); err != nil {
			return nil, err
		}
		for _, kw := range unmarshalList(keywords) {
			if kw != "" {
				weights[kw] += keywordWeight
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	words := make([]WordWeight, 0, len(weights))
	for word, weight := range weights {
		words = append(words, WordWeight{Word: word, Weight: weight})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Weight != words[j].Weight {
			return words[i].Weight > words[j].Weight
		}
		return words[i].Word < words[j].Word
	})
	return words, nil
}
