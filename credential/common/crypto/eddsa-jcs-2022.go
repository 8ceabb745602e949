package crypto

import (
	"crypto/ed25519"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/canonical"
)

// EdDSAJCS2022 implements the eddsa-jcs-2022 cryptosuite.
type EdDSAJCS2022 struct {
	canonicalizer canonical.Canonicalizer
}

// NewEdDSAJCS2022 creates the eddsa-jcs-2022 suite.
func NewEdDSAJCS2022() *EdDSAJCS2022 {
	return &EdDSAJCS2022{canonicalizer: canonical.NewJCS()}
}

func (s *EdDSAJCS2022) Name() string {
	return CryptosuiteEdDSAJCS2022
}

func (s *EdDSAJCS2022) Canonicalizer() canonical.Canonicalizer {
	return s.canonicalizer
}

// Verify implements Suite.
func (s *EdDSAJCS2022) Verify(publicKey, data, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: ed25519 public key must be %d bytes, got %d", ErrInvalidKey, ed25519.PublicKeySize, len(publicKey))
	}

	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: ed25519 signature must be %d bytes, got %d", ErrInvalidSignature, ed25519.SignatureSize, len(signature))
	}

	if !ed25519.Verify(ed25519.PublicKey(publicKey), data, signature) {
		return ErrInvalidSignature
	}

	return nil
}

// Ed25519Signer signs with an in-memory Ed25519 private key.
type Ed25519Signer struct {
	priv               ed25519.PrivateKey
	verificationMethod string
}

// NewEd25519Signer creates a signer from an Ed25519 private key.
//
// verificationMethod is the DID URL published for the key. When empty, the
// did:key verification method derived from the public key is used.
func NewEd25519Signer(priv ed25519.PrivateKey, verificationMethod string) (*Ed25519Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}

	if verificationMethod == "" {
		vm, err := DIDKeyVerificationMethod(KeyTypeEd25519, priv.Public().(ed25519.PublicKey))
		if err != nil {
			return nil, err
		}
		verificationMethod = vm
	}

	return &Ed25519Signer{priv: priv, verificationMethod: verificationMethod}, nil
}

// NewEd25519SignerFromHex creates a signer from a hex encoded 32-byte seed.
func NewEd25519SignerFromHex(seedHex, verificationMethod string) (*Ed25519Signer, error) {
	seed, err := DecodeHex(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid ed25519 seed: %w", err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid ed25519 seed length: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	return NewEd25519Signer(ed25519.NewKeyFromSeed(seed), verificationMethod)
}

// GenerateEd25519Signer creates a signer over a fresh key bound to its did:key.
func GenerateEd25519Signer(rand io.Reader) (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	return NewEd25519Signer(priv, "")
}

// Sign signs data with the private key.
func (s *Ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func (s *Ed25519Signer) VerificationMethod() string {
	return s.verificationMethod
}

func (s *Ed25519Signer) Cryptosuite() string {
	return CryptosuiteEdDSAJCS2022
}

// PublicKey returns the raw 32-byte public key.
func (s *Ed25519Signer) PublicKey() []byte {
	return append([]byte(nil), s.priv.Public().(ed25519.PublicKey)...)
}

// PrivateKeyHex returns the 0x-prefixed hex encoded seed.
func (s *Ed25519Signer) PrivateKeyHex() string {
	return hexutil.Encode(s.priv.Seed())
}
