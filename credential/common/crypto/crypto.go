package crypto

import (
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/canonical"
)

const (
	// CryptosuiteEdDSAJCS2022 signs JCS-canonical JSON with Ed25519.
	CryptosuiteEdDSAJCS2022 = "eddsa-jcs-2022"

	// CryptosuiteECDSARDFC2019 signs URDNA2015 N-Quads with ECDSA over secp256k1.
	CryptosuiteECDSARDFC2019 = "ecdsa-rdfc-2019"
)

var (
	// ErrInvalidKey is returned when public key bytes cannot be used by a suite.
	ErrInvalidKey = errors.New("invalid public key")

	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Suite is a Data Integrity cryptosuite: a canonicalization algorithm paired
// with a signature scheme.
type Suite interface {
	// Name returns the cryptosuite identifier stored in proof.cryptosuite.
	Name() string

	// Canonicalizer returns the encoder used for both the document and the proof configuration.
	Canonicalizer() canonical.Canonicalizer

	// Verify checks signature over data with the raw public key bytes.
	Verify(publicKey, data, signature []byte) error
}

// EncodeProofValue encodes raw signature bytes as a multibase base58-btc string.
func EncodeProofValue(signature []byte) (string, error) {
	if len(signature) == 0 {
		return "", fmt.Errorf("failed to encode proof value: signature is empty")
	}

	value, err := multibase.Encode(multibase.Base58BTC, signature)
	if err != nil {
		return "", fmt.Errorf("failed to encode proof value: %w", err)
	}

	return value, nil
}

// DecodeProofValue decodes a multibase base58-btc proof value.
func DecodeProofValue(value string) ([]byte, error) {
	encoding, signature, err := multibase.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode proof value: %w", err)
	}

	if encoding != multibase.Base58BTC {
		return nil, fmt.Errorf("failed to decode proof value: unsupported multibase encoding %q", string(rune(encoding)))
	}

	return signature, nil
}
