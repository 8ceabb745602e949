package verificationmethod

import (
	"context"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
)

// DIDKeyResolver resolves did:key verification methods offline; the public
// key is encoded in the identifier itself.
type DIDKeyResolver struct{}

// NewDIDKeyResolver creates a did:key resolver.
func NewDIDKeyResolver() *DIDKeyResolver {
	return &DIDKeyResolver{}
}

// ResolveVerificationMethod implements provider.Resolver.
func (r *DIDKeyResolver) ResolveVerificationMethod(ctx context.Context, verificationMethodURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, publicKey, err := crypto.ParseDIDKey(verificationMethodURL)
	if err != nil {
		return nil, err
	}

	return publicKey, nil
}
