package database

import "encoding/json"

// marshalList encodes a string list as JSON for a TEXT column.
// Storing JSON instead of a comma-joined string keeps values containing
// the delimiter intact on the way back out.
func marshalList(values []string) (*string, error) {
	if values == nil {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

// unmarshalList decodes a JSON list column. A NULL or malformed value
// yields nil.
func unmarshalList(data *string) []string {
	if data == nil {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*data), &values); err != nil {
		return nil
	}
	return values
}
