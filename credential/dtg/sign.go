package dtg

import (
	"context"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

// Sign signs the credential with key and attaches the proof. The proof
// creation time defaults to now; pass integrity.WithCreated to fix it.
func (c *Credential) Sign(ctx context.Context, key provider.KeySigner, opts ...integrity.Option) (*dto.Proof, error) {
	return integrity.NewSigner(opts...).Sign(ctx, c, key)
}

// VerifyWithPublicKey verifies the proof against publicKey, ignoring the
// verification method named by the proof.
func (c *Credential) VerifyWithPublicKey(ctx context.Context, publicKey []byte, opts ...integrity.Option) error {
	if publicKey == nil {
		publicKey = []byte{}
	}
	return integrity.NewVerifier(opts...).Verify(ctx, c, publicKey)
}

// Verify verifies the proof with the public key resolved from its
// verification method.
func (c *Credential) Verify(ctx context.Context, resolver provider.Resolver, opts ...integrity.Option) error {
	opts = append([]integrity.Option{integrity.WithResolver(resolver)}, opts...)
	return integrity.NewVerifier(opts...).Verify(ctx, c, nil)
}
