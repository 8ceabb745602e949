package dto

const (
	// DataIntegrityProof is the only proof type produced and accepted.
	DataIntegrityProof = "DataIntegrityProof"

	// ProofPurposeAssertionMethod is the fixed proof purpose for issued credentials.
	ProofPurposeAssertionMethod = "assertionMethod"
)

// Proof represents a Data Integrity proof attached to a DTG credential.
type Proof struct {
	Type               string `json:"type"`
	Cryptosuite        string `json:"cryptosuite"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Config returns the proof configuration (the proof without its value),
// the part of the proof that is bound by the signature.
func (p Proof) Config() map[string]interface{} {
	return map[string]interface{}{
		"type":               p.Type,
		"cryptosuite":        p.Cryptosuite,
		"created":            p.Created,
		"verificationMethod": p.VerificationMethod,
		"proofPurpose":       p.ProofPurpose,
	}
}

// Validate checks that every field required for verification is present.
func (p Proof) Validate() []string {
	var missing []string
	if p.Type == "" {
		missing = append(missing, "type")
	}
	if p.Cryptosuite == "" {
		missing = append(missing, "cryptosuite")
	}
	if p.Created == "" {
		missing = append(missing, "created")
	}
	if p.VerificationMethod == "" {
		missing = append(missing, "verificationMethod")
	}
	if p.ProofPurpose == "" {
		missing = append(missing, "proofPurpose")
	}
	if p.ProofValue == "" {
		missing = append(missing, "proofValue")
	}
	return missing
}
