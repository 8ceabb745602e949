package provider

import "context"

// KeySigner is the external signing collaborator. Private key material never
// leaves the implementation; only signatures do.
type KeySigner interface {
	// Sign returns the raw signature over data.
	Sign(data []byte) ([]byte, error)

	// VerificationMethod returns the published identifier (DID URL) of the signing key.
	VerificationMethod() string

	// Cryptosuite returns the Data Integrity cryptosuite the key signs for.
	Cryptosuite() string
}

// Resolver resolves a verification method identifier to raw public key bytes.
// Implementations must honour ctx cancellation where they perform I/O.
type Resolver interface {
	ResolveVerificationMethod(ctx context.Context, verificationMethod string) ([]byte, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, verificationMethod string) ([]byte, error)

// ResolveVerificationMethod calls f(ctx, verificationMethod).
func (f ResolverFunc) ResolveVerificationMethod(ctx context.Context, verificationMethod string) ([]byte, error) {
	return f(ctx, verificationMethod)
}
