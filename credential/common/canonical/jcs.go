package canonical

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS canonicalizes documents with the JSON Canonicalization Scheme (RFC 8785).
type JCS struct{}

// NewJCS returns a JCS canonicalizer.
func NewJCS() JCS {
	return JCS{}
}

// Canonicalize implements Canonicalizer.
func (JCS) Canonicalize(doc map[string]interface{}) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("failed to canonicalize document: document is nil")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to apply JCS transform: %w", err)
	}

	return out, nil
}
