package integrity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// Signer produces Data Integrity proofs and attaches them to documents.
type Signer struct {
	suites map[string]crypto.Suite
	now    func() time.Time
	logger *zap.Logger
}

// NewSigner creates a Signer. eddsa-jcs-2022 and ecdsa-rdfc-2019 are registered by default.
func NewSigner(opts ...Option) *Signer {
	o := newOptions(opts...)

	return &Signer{
		suites: o.suites,
		now:    o.now,
		logger: o.logger,
	}
}

// Sign signs doc with key and attaches the resulting proof.
//
// A document that already carries a proof is rejected with ErrAlreadySigned
// and left untouched. Signer failures are reported as ErrProviderFailure. The
// document is only modified once the proof is complete.
func (s *Signer) Sign(ctx context.Context, doc Document, key provider.KeySigner) (*dto.Proof, error) {
	if doc.Proof() != nil {
		return nil, ErrAlreadySigned
	}

	if key == nil {
		return nil, fmt.Errorf("%w: no signer provided", ErrProviderFailure)
	}

	suite, ok := s.suites[key.Cryptosuite()]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrProviderFailure, ErrUnsupportedCryptosuite, key.Cryptosuite())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unsecured, err := doc.UnsecuredDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to build unsecured document: %w", err)
	}

	proof := dto.Proof{
		Type:               dto.DataIntegrityProof,
		Cryptosuite:        suite.Name(),
		Created:            s.now().UTC().Format(time.RFC3339),
		VerificationMethod: key.VerificationMethod(),
		ProofPurpose:       dto.ProofPurposeAssertionMethod,
	}

	data, err := hashData(suite, proof, unsecured)
	if err != nil {
		return nil, err
	}

	signature, err := key.Sign(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	proof.ProofValue, err = crypto.EncodeProofValue(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailure, err)
	}

	if err := doc.AttachProof(proof); err != nil {
		return nil, err
	}

	s.logger.Debug("attached proof",
		zap.String("cryptosuite", proof.Cryptosuite),
		zap.String("verificationMethod", proof.VerificationMethod),
		zap.String("created", proof.Created))

	return &proof, nil
}
