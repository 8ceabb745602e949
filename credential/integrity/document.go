package integrity

import "github.com/firstperson-network/go-dtg-credentials/credential/common/dto"

// Document is a JSON document that can carry a single Data Integrity proof.
type Document interface {
	// Proof returns the attached proof, or nil when the document is unsigned.
	Proof() *dto.Proof

	// UnsecuredDocument returns the JSON object form of the document without
	// its proof. It must not modify the document.
	UnsecuredDocument() (map[string]interface{}, error)

	// AttachProof attaches a complete proof in a single step. It fails with
	// ErrAlreadySigned if a proof is already present.
	AttachProof(proof dto.Proof) error
}
