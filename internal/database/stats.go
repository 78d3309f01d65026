package database

import "sort"

// topTagCount bounds the tag frequency list in GetStats.
const topTagCount = 10

// GetStats returns aggregate statistics across all records.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ModelCounts: map[string]int{}}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM records", &s.TotalMemorias},
		{"SELECT COUNT(*) FROM entities", &s.TotalEntities},
		{"SELECT COUNT(*) FROM clusters", &s.TotalClusters},
		{"SELECT COUNT(*) FROM messages", &s.TotalMessages},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	rows, err := db.conn.Query(
		"SELECT model, COUNT(*) FROM records GROUP BY model",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		var count int
		if err := rows.Scan(&model, &count); err != nil {
			return nil, err
		}
		s.ModelCounts[model] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	topTags, err := db.topTags()
	if err != nil {
		return nil, err
	}
	s.TopTags = topTags

	return s, nil
}

// topTags counts tag occurrences across all records and returns the ten
// most frequent, ties broken lexically.
func (db *DB) topTags() ([]TagCount, error) {
	rows, err := db.conn.Query("SELECT tags FROM records WHERE tags IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var tags *string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, tag := range unmarshalList(tags) {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagCounts := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tagCounts = append(tagCounts, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tagCounts, func(i, j int) bool {
		if tagCounts[i].Count != tagCounts[j].Count {
			return tagCounts[i].Count > tagCounts[j].Count
		}
		return tagCounts[i].Tag < tagCounts[j].Tag
	})
	if len(tagCounts) > topTagCount {
		tagCounts = tagCounts[:topTagCount]
	}
	return tagCounts, nil
}
