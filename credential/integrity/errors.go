package integrity

import "errors"

var (
	// ErrAlreadySigned is returned when signing a document that already carries a proof.
	ErrAlreadySigned = errors.New("credential is already signed")

	// ErrNotSigned is returned when verifying a document without a proof.
	ErrNotSigned = errors.New("credential is not signed")

	// ErrProviderFailure is returned when the external signer fails.
	ErrProviderFailure = errors.New("signing provider failure")

	// ErrKeyResolutionFailed is returned when the verification method cannot be
	// resolved to a public key, including when resolution times out.
	ErrKeyResolutionFailed = errors.New("key resolution failed")

	// ErrSignatureMismatch is returned when the proof does not verify against
	// the document content and the public key.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrMalformedProof is returned, wrapped in ErrSignatureMismatch, when a
	// proof is missing required fields or carries unexpected values.
	ErrMalformedProof = errors.New("malformed proof")

	// ErrUnsupportedCryptosuite is returned when no suite is registered for a cryptosuite name.
	ErrUnsupportedCryptosuite = errors.New("unsupported cryptosuite")
)
