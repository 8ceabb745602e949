package dtg

import (
	"errors"

	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

var (
	// ErrMalformedCredential is returned when a credential lacks a field its
	// variant requires, carries fields its variant does not define, or has an
	// empty or inverted validity period.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrUnknownCredential is returned when the type list names no DTG credential variant.
	ErrUnknownCredential = errors.New("unknown credential type")

	// ErrUnknownVCVersion is returned when @context names neither W3C VC 1.1 nor 2.0.
	ErrUnknownVCVersion = errors.New("unknown W3C VC version")
)

// Integrity errors, re-exported for callers that only import this package.
var (
	ErrAlreadySigned       = integrity.ErrAlreadySigned
	ErrNotSigned           = integrity.ErrNotSigned
	ErrProviderFailure     = integrity.ErrProviderFailure
	ErrKeyResolutionFailed = integrity.ErrKeyResolutionFailed
	ErrSignatureMismatch   = integrity.ErrSignatureMismatch
)
