package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/canonical"
)

// ECDSARDFC2019 implements the ecdsa-rdfc-2019 cryptosuite over secp256k1.
type ECDSARDFC2019 struct {
	canonicalizer canonical.Canonicalizer
}

// NewECDSARDFC2019 creates the ecdsa-rdfc-2019 suite. A nil canonicalizer
// selects an RDFC canonicalizer with the default document loader.
func NewECDSARDFC2019(canonicalizer canonical.Canonicalizer) *ECDSARDFC2019 {
	if canonicalizer == nil {
		canonicalizer = canonical.NewRDFC()
	}

	return &ECDSARDFC2019{canonicalizer: canonicalizer}
}

func (s *ECDSARDFC2019) Name() string {
	return CryptosuiteECDSARDFC2019
}

func (s *ECDSARDFC2019) Canonicalizer() canonical.Canonicalizer {
	return s.canonicalizer
}

// Verify implements Suite. The public key may be compressed (33 bytes) or
// uncompressed (65 bytes); the signature is r||s, optionally followed by a
// recovery byte.
func (s *ECDSARDFC2019) Verify(publicKey, data, signature []byte) error {
	pubKey, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: failed to parse secp256k1 public key: %w", ErrInvalidKey, err)
	}

	var rs []byte
	switch len(signature) {
	case 64:
		rs = signature
	case 65:
		rs = signature[:64]
	default:
		return fmt.Errorf("%w: got %d bytes, want 64 or 65", ErrInvalidSignature, len(signature))
	}

	hash := sha256.Sum256(data)
	if !ethcrypto.VerifySignature(pubKey.SerializeCompressed(), hash[:], rs) {
		return ErrInvalidSignature
	}

	return nil
}

// Secp256k1Signer signs with an in-memory secp256k1 private key.
type Secp256k1Signer struct {
	priv               *ecdsa.PrivateKey
	verificationMethod string
}

// NewSecp256k1Signer creates a signer from a hex encoded private key.
//
// verificationMethod is the DID URL published for the key. When empty, the
// did:key verification method derived from the public key is used.
func NewSecp256k1Signer(privHex, verificationMethod string) (*Secp256k1Signer, error) {
	priv, err := ethcrypto.HexToECDSA(strings.TrimPrefix(privHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 private key: %w", err)
	}

	return newSecp256k1Signer(priv, verificationMethod)
}

// GenerateSecp256k1Signer creates a signer over a fresh key bound to its did:key.
func GenerateSecp256k1Signer() (*Secp256k1Signer, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}

	return newSecp256k1Signer(priv, "")
}

func newSecp256k1Signer(priv *ecdsa.PrivateKey, verificationMethod string) (*Secp256k1Signer, error) {
	if verificationMethod == "" {
		vm, err := DIDKeyVerificationMethod(KeyTypeSecp256k1, ethcrypto.CompressPubkey(&priv.PublicKey))
		if err != nil {
			return nil, err
		}
		verificationMethod = vm
	}

	return &Secp256k1Signer{priv: priv, verificationMethod: verificationMethod}, nil
}

// Sign hashes data with SHA-256 and returns the 64-byte r||s signature.
func (s *Secp256k1Signer) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)

	signature, err := ethcrypto.Sign(hash[:], s.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(signature))
	}

	return signature[:64], nil
}

func (s *Secp256k1Signer) VerificationMethod() string {
	return s.verificationMethod
}

func (s *Secp256k1Signer) Cryptosuite() string {
	return CryptosuiteECDSARDFC2019
}

// PublicKey returns the 33-byte compressed public key.
func (s *Secp256k1Signer) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&s.priv.PublicKey)
}

// PrivateKeyHex returns the 0x-prefixed hex encoded private key.
func (s *Secp256k1Signer) PrivateKeyHex() string {
	return hexutil.Encode(ethcrypto.FromECDSA(s.priv))
}
