package canonical

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Canonicalizer turns a proof-free JSON document into a deterministic byte
// sequence. Two documents with the same members and values must produce the
// same bytes regardless of member order or whitespace.
type Canonicalizer interface {
	Canonicalize(doc map[string]interface{}) ([]byte, error)
}

// ComputeDigest computes the SHA-256 digest of the input data.
func ComputeDigest(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// normalize round-trips the document through encoding/json so that every
// value is one of the generic JSON types (map, []interface{}, string,
// float64, bool, nil) before it reaches a canonicalization library.
func normalize(doc map[string]interface{}) (map[string]interface{}, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return out, nil
}
