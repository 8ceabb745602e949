package crypto

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/multiformats/go-multibase"
)

// KeyType identifies the public key algorithm carried by a multikey.
type KeyType int

const (
	KeyTypeEd25519 KeyType = iota + 1
	KeyTypeSecp256k1
)

const didKeyPrefix = "did:key:"

// multicodec varint prefixes for public keys
var multicodecPrefixes = map[KeyType][]byte{
	KeyTypeEd25519:   {0xed, 0x01},
	KeyTypeSecp256k1: {0xe7, 0x01},
}

func (k KeyType) String() string {
	switch k {
	case KeyTypeEd25519:
		return "Ed25519"
	case KeyTypeSecp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("KeyType(%d)", int(k))
	}
}

// Cryptosuite returns the cryptosuite that signs with this key type.
func (k KeyType) Cryptosuite() string {
	switch k {
	case KeyTypeEd25519:
		return CryptosuiteEdDSAJCS2022
	case KeyTypeSecp256k1:
		return CryptosuiteECDSARDFC2019
	default:
		return ""
	}
}

// EncodeMultikey encodes a public key as a multicodec-prefixed base58-btc multibase string.
func EncodeMultikey(keyType KeyType, publicKey []byte) (string, error) {
	prefix, ok := multicodecPrefixes[keyType]
	if !ok {
		return "", fmt.Errorf("unsupported key type: %s", keyType)
	}

	publicKey, err := validatePublicKey(keyType, publicKey)
	if err != nil {
		return "", err
	}

	data := append(append([]byte{}, prefix...), publicKey...)
	encoded, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode multikey: %w", err)
	}

	return encoded, nil
}

// DecodeMultikey decodes a multikey string into its key type and raw public key.
// secp256k1 keys are returned in compressed form.
func DecodeMultikey(value string) (KeyType, []byte, error) {
	_, data, err := multibase.Decode(value)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode multikey: %w", err)
	}

	for keyType, prefix := range multicodecPrefixes {
		if len(data) > len(prefix) && string(data[:len(prefix)]) == string(prefix) {
			publicKey, err := validatePublicKey(keyType, data[len(prefix):])
			if err != nil {
				return 0, nil, err
			}
			return keyType, publicKey, nil
		}
	}

	return 0, nil, fmt.Errorf("failed to decode multikey: unsupported multicodec prefix")
}

// DIDKey returns the did:key identifier of a public key.
func DIDKey(keyType KeyType, publicKey []byte) (string, error) {
	multikey, err := EncodeMultikey(keyType, publicKey)
	if err != nil {
		return "", err
	}

	return didKeyPrefix + multikey, nil
}

// DIDKeyVerificationMethod returns the did:key verification method URL of a
// public key, in the form did:key:<mk>#<mk>.
func DIDKeyVerificationMethod(keyType KeyType, publicKey []byte) (string, error) {
	multikey, err := EncodeMultikey(keyType, publicKey)
	if err != nil {
		return "", err
	}

	return didKeyPrefix + multikey + "#" + multikey, nil
}

// ParseDIDKey extracts the public key from a did:key identifier or
// verification method URL. A fragment, when present, must name the same key.
func ParseDIDKey(didURL string) (KeyType, []byte, error) {
	if !strings.HasPrefix(didURL, didKeyPrefix) {
		return 0, nil, fmt.Errorf("not a did:key identifier: %s", didURL)
	}

	multikey, fragment, found := strings.Cut(strings.TrimPrefix(didURL, didKeyPrefix), "#")
	if found && fragment != multikey {
		return 0, nil, fmt.Errorf("did:key fragment %q does not match key %q", fragment, multikey)
	}

	return DecodeMultikey(multikey)
}

func validatePublicKey(keyType KeyType, publicKey []byte) ([]byte, error) {
	switch keyType {
	case KeyTypeEd25519:
		if len(publicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes, got %d", ErrInvalidKey, ed25519.PublicKeySize, len(publicKey))
		}
		return publicKey, nil
	case KeyTypeSecp256k1:
		pubKey, err := secp256k1.ParsePubKey(publicKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return pubKey.SerializeCompressed(), nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", keyType)
	}
}

// DecodeHex decodes a hex string with or without the 0x prefix.
func DecodeHex(value string) ([]byte, error) {
	if !strings.HasPrefix(value, "0x") && !strings.HasPrefix(value, "0X") {
		value = "0x" + value
	}

	return hexutil.Decode(value)
}
