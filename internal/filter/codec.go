package filter

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is the version written by Encode. Decode accepts every
// version up to and including it.
const SchemaVersion = 1

type document struct {
	Version  int       `json:"version"`
	Elements []Element `json:"elements"`
}

// Encode serializes q in the versioned element-list schema.
func Encode(q *Query) ([]byte, error) {
	return json.Marshal(document{Version: SchemaVersion, Elements: q.elements})
}

// Decode parses and re-validates a serialized query.
func Decode(data []byte) (*Query, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode filter query: %w", err)
	}
	if doc.Version < 1 || doc.Version > SchemaVersion {
		return nil, invalid("version", "unsupported schema version %d", doc.Version)
	}
	return NewQuery(doc.Elements...)
}

func (q *Query) MarshalJSON() ([]byte, error) { return Encode(q) }

func (q *Query) UnmarshalJSON(data []byte) error {
	parsed, err := Decode(data)
	if err != nil {
		return err
	}
	*q = *parsed
	return nil
}
