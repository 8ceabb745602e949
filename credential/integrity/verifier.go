package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// Verifier checks Data Integrity proofs.
type Verifier struct {
	suites            map[string]crypto.Suite
	resolver          provider.Resolver
	resolutionTimeout time.Duration
	logger            *zap.Logger
}

// NewVerifier creates a Verifier. eddsa-jcs-2022 and ecdsa-rdfc-2019 are registered by default.
func NewVerifier(opts ...Option) *Verifier {
	o := newOptions(opts...)

	return &Verifier{
		suites:            o.suites,
		resolver:          o.resolver,
		resolutionTimeout: o.resolutionTimeout,
		logger:            o.logger,
	}
}

// Verify checks the proof of doc. When publicKey is nil the key is resolved
// from the proof's verification method through the configured resolver;
// otherwise publicKey is used as is.
func (v *Verifier) Verify(ctx context.Context, doc Document, publicKey []byte) error {
	if publicKey != nil {
		return v.VerifyWith(ctx, doc, DirectKey(publicKey))
	}

	return v.VerifyWith(ctx, doc, ResolvedKey{Resolver: v.resolver, Timeout: v.resolutionTimeout})
}

// VerifyWith checks the proof of doc with the key supplied by source.
//
// Results: nil when the proof verifies; ErrNotSigned without a proof;
// ErrKeyResolutionFailed when source cannot produce a key; ErrSignatureMismatch
// for every other failure. doc is never modified.
func (v *Verifier) VerifyWith(ctx context.Context, doc Document, source KeySource) error {
	attached := doc.Proof()
	if attached == nil {
		v.logger.Warn("trying to verify a credential that has no proof")
		return ErrNotSigned
	}
	proof := *attached

	err := v.verify(ctx, doc, proof, source)
	if err != nil {
		v.logger.Debug("proof verification failed",
			zap.String("cryptosuite", proof.Cryptosuite),
			zap.String("verificationMethod", proof.VerificationMethod),
			zap.Error(err))
		return err
	}

	v.logger.Debug("proof verified",
		zap.String("cryptosuite", proof.Cryptosuite),
		zap.String("verificationMethod", proof.VerificationMethod))

	return nil
}

func (v *Verifier) verify(ctx context.Context, doc Document, proof dto.Proof, source KeySource) error {
	if err := checkProof(proof); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	suite, ok := v.suites[proof.Cryptosuite]
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrSignatureMismatch, ErrUnsupportedCryptosuite, proof.Cryptosuite)
	}

	unsecured, err := doc.UnsecuredDocument()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	data, err := hashData(suite, proof, unsecured)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	publicKey, err := source.PublicKey(ctx, proof.VerificationMethod)
	if err != nil {
		return err
	}

	signature, err := crypto.DecodeProofValue(proof.ProofValue)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	if err := suite.Verify(publicKey, data, signature); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}

	return nil
}

func checkProof(proof dto.Proof) error {
	if missing := proof.Validate(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMalformedProof, strings.Join(missing, ", "))
	}

	if proof.Type != dto.DataIntegrityProof {
		return fmt.Errorf("%w: unexpected type %q", ErrMalformedProof, proof.Type)
	}

	if proof.ProofPurpose != dto.ProofPurposeAssertionMethod {
		return fmt.Errorf("%w: unexpected proof purpose %q", ErrMalformedProof, proof.ProofPurpose)
	}

	if _, err := time.Parse(time.RFC3339, proof.Created); err != nil {
		return fmt.Errorf("%w: invalid created timestamp: %w", ErrMalformedProof, err)
	}

	return nil
}
