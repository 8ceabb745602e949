package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContextURL = "https://example.org/test/v1"

func testContext() map[string]interface{} {
	return map[string]interface{}{
		"@context": map[string]interface{}{
			"@vocab": "https://example.org/vocab#",
			"id":     "@id",
			"type":   "@type",
		},
	}
}

func TestJCSCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Sorts members",
			input:    `{"b": 1, "a": "x"}`,
			expected: `{"a":"x","b":1}`,
		},
		{
			name:     "Nested objects and arrays",
			input:    `{"z": {"y": [3, 2, {"d": true, "c": null}]}, "a": []}`,
			expected: `{"a":[],"z":{"y":[3,2,{"c":null,"d":true}]}}`,
		},
		{
			name:     "Number formatting",
			input:    `{"n": 1.0, "m": 1e3}`,
			expected: `{"m":1000,"n":1}`,
		},
		{
			name:     "Unicode escapes",
			input:    `{"s": "é<>"}`,
			expected: `{"s":"é<>"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.input), &doc))

			out, err := NewJCS().Canonicalize(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestJCSDeterminism(t *testing.T) {
	a := map[string]interface{}{
		"issuer":    "did:example:A",
		"validFrom": "2025-01-01T00:00:00Z",
		"credentialSubject": map[string]interface{}{
			"id": "did:example:B",
		},
	}

	var b map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"credentialSubject": {"id": "did:example:B"},
		"validFrom":         "2025-01-01T00:00:00Z",
		"issuer":            "did:example:A"
	}`), &b))

	outA, err := NewJCS().Canonicalize(a)
	require.NoError(t, err)
	outB, err := NewJCS().Canonicalize(b)
	require.NoError(t, err)

	assert.Equal(t, outA, outB)
}

func TestJCSNilDocument(t *testing.T) {
	_, err := NewJCS().Canonicalize(nil)
	assert.Error(t, err)
}

func TestRDFCCanonicalize(t *testing.T) {
	c := NewRDFC(WithContext(testContextURL, testContext()))

	a := map[string]interface{}{
		"@context": testContextURL,
		"id":       "urn:example:1",
		"name":     "Alice",
		"knows":    "Bob",
	}
	b := map[string]interface{}{
		"knows":    "Bob",
		"name":     "Alice",
		"id":       "urn:example:1",
		"@context": testContextURL,
	}

	outA, err := c.Canonicalize(a)
	require.NoError(t, err)
	outB, err := c.Canonicalize(b)
	require.NoError(t, err)

	assert.Equal(t, outA, outB)
	assert.Contains(t, string(outA), `<urn:example:1> <https://example.org/vocab#name> "Alice" .`)

	b["name"] = "Mallory"
	outC, err := c.Canonicalize(b)
	require.NoError(t, err)
	assert.NotEqual(t, outA, outC)
}

func TestRDFCUndefinedTerm(t *testing.T) {
	const strictURL = "https://example.org/strict/v1"
	c := NewRDFC(WithContext(strictURL, map[string]interface{}{
		"@context": map[string]interface{}{
			"id":   "@id",
			"name": "https://example.org/vocab#name",
		},
	}))

	tests := []struct {
		name    string
		doc     map[string]interface{}
		wantErr bool
	}{
		{
			name: "Defined terms",
			doc:  map[string]interface{}{"@context": strictURL, "id": "urn:example:1", "name": "Alice"},
		},
		{
			name:    "Undefined top-level term",
			doc:     map[string]interface{}{"@context": strictURL, "id": "urn:example:1", "name": "Alice", "knows": "Bob"},
			wantErr: true,
		},
		{
			name: "Undefined nested term",
			doc: map[string]interface{}{
				"@context": strictURL,
				"id":       "urn:example:1",
				"name":     map[string]interface{}{"skill": "forged"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Canonicalize(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, string(out), `<https://example.org/vocab#name> "Alice"`)
		})
	}
}

func TestRDFCNilDocument(t *testing.T) {
	_, err := NewRDFC().Canonicalize(nil)
	assert.Error(t, err)
}

func TestComputeDigest(t *testing.T) {
	d1 := ComputeDigest([]byte("abc"))
	d2 := ComputeDigest([]byte("abc"))
	assert.Len(t, d1, 32)
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, ComputeDigest([]byte("abd")))
}
