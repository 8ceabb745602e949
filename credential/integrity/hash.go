package integrity

import (
	"fmt"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/canonical"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
)

// hashData computes SHA-256(canon(proof config)) || SHA-256(canon(document)).
// The proof configuration shares the document's @context.
func hashData(suite crypto.Suite, proof dto.Proof, unsecured map[string]interface{}) ([]byte, error) {
	proofConfig := proof.Config()
	if ctx, ok := unsecured["@context"]; ok {
		proofConfig["@context"] = ctx
	}

	canonicalizer := suite.Canonicalizer()

	canonicalConfig, err := canonicalizer.Canonicalize(proofConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize proof configuration: %w", err)
	}

	canonicalDocument, err := canonicalizer.Canonicalize(unsecured)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	return append(canonical.ComputeDigest(canonicalConfig), canonical.ComputeDigest(canonicalDocument)...), nil
}
