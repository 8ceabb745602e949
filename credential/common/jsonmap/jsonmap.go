// Package jsonmap secures arbitrary JSON objects with Data Integrity proofs.
// JSONMap implements integrity.Document, so any JSON-LD document can be signed
// and verified with the same coordinators as DTG credentials.
package jsonmap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

const proofKey = "proof"

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// Parse decodes a JSON object. Numbers are kept as json.Number so they
// re-serialize unchanged.
func Parse(data []byte) (JSONMap, error) {
	m, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("JSONMap is null")
	}
	return m, nil
}

// ToJSON serializes the JSONMap to JSON.
func (m JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return data, nil
}

// Proof returns the attached proof, or nil if there is none. When the proof
// member holds a set of proofs the first one is returned. A proof member that
// is not an object yields an empty proof, which fails verification.
func (m JSONMap) Proof() *dto.Proof {
	raw, ok := m[proofKey]
	if !ok || raw == nil {
		return nil
	}

	if proofs, ok := raw.([]interface{}); ok {
		if len(proofs) == 0 {
			return nil
		}
		raw = proofs[0]
	}

	proof, err := ParseRawToProof(raw)
	if err != nil {
		return &dto.Proof{}
	}
	return &proof
}

// UnsecuredDocument returns a deep copy of the JSONMap without its proof.
func (m JSONMap) UnsecuredDocument() (map[string]interface{}, error) {
	unsecured := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k != proofKey {
			unsecured[k] = v
		}
	}

	data, err := json.Marshal(unsecured)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap copy: %w", err)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap copy: %w", err)
	}
	return doc, nil
}

// AttachProof adds proof to the JSONMap. It fails with
// integrity.ErrAlreadySigned if a proof is present.
func (m JSONMap) AttachProof(proof dto.Proof) error {
	if m == nil {
		return fmt.Errorf("JSONMap is nil")
	}
	if _, ok := m[proofKey]; ok {
		return integrity.ErrAlreadySigned
	}

	data, err := json.Marshal(proof)
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}
	serialized, err := decode(data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal proof: %w", err)
	}

	m[proofKey] = serialized
	return nil
}

// ParseRawToProof converts a JSON object to a Proof struct.
func ParseRawToProof(proof interface{}) (dto.Proof, error) {
	var result dto.Proof
	proofMap, ok := proof.(map[string]interface{})
	if !ok {
		return result, fmt.Errorf("invalid proof format: expected map[string]interface{}, got %T", proof)
	}

	if t, ok := proofMap["type"].(string); ok {
		result.Type = t
	}
	if cryptosuite, ok := proofMap["cryptosuite"].(string); ok {
		result.Cryptosuite = cryptosuite
	}
	if created, ok := proofMap["created"].(string); ok {
		result.Created = created
	}
	if purpose, ok := proofMap["proofPurpose"].(string); ok {
		result.ProofPurpose = purpose
	}
	if vm, ok := proofMap["verificationMethod"].(string); ok {
		result.VerificationMethod = vm
	}
	if pv, ok := proofMap["proofValue"].(string); ok {
		result.ProofValue = pv
	}
	return result, nil
}

func decode(data []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var m map[string]interface{}
	if err := decoder.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

var _ integrity.Document = JSONMap{}
