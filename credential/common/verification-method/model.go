package verificationmethod

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
)

// VerificationMethodEntry represents a single verification method in a DID Document.
type VerificationMethodEntry struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
}

// JWK represents a JSON Web Key structure
type JWK struct {
	Kty string `json:"kty"` // Key type
	Crv string `json:"crv"` // Curve
	X   string `json:"x"`   // X coordinate
	Y   string `json:"y,omitempty"`
}

// PublicKey returns the raw Ed25519 key or the compressed secp256k1 key.
func (j JWK) PublicKey() ([]byte, error) {
	x, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, fmt.Errorf("invalid jwk x: %w", err)
	}

	switch {
	case j.Kty == "OKP" && j.Crv == "Ed25519":
		if len(x) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid Ed25519 jwk length: %d", len(x))
		}
		return x, nil
	case j.Kty == "EC" && j.Crv == "secp256k1":
		y, err := base64.RawURLEncoding.DecodeString(j.Y)
		if err != nil {
			return nil, fmt.Errorf("invalid jwk y: %w", err)
		}
		if len(x) != 32 || len(y) != 32 {
			return nil, fmt.Errorf("invalid secp256k1 jwk coordinates")
		}

		uncompressed := append(append([]byte{0x04}, x...), y...)
		pubKey, err := secp256k1.ParsePubKey(uncompressed)
		if err != nil {
			return nil, fmt.Errorf("invalid secp256k1 jwk: %w", err)
		}
		return pubKey.SerializeCompressed(), nil
	default:
		return nil, fmt.Errorf("unsupported jwk: kty %q crv %q", j.Kty, j.Crv)
	}
}

// PublicKey decodes the raw public key bytes of the entry. publicKeyMultibase
// is preferred over publicKeyBase58, then publicKeyHex, then publicKeyJwk.
func (e VerificationMethodEntry) PublicKey() ([]byte, error) {
	switch {
	case e.PublicKeyMultibase != "":
		if _, key, err := crypto.DecodeMultikey(e.PublicKeyMultibase); err == nil {
			return key, nil
		}
		// multibase value without a multicodec header
		_, key, err := multibase.Decode(e.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyMultibase of '%s': %w", e.ID, err)
		}
		return key, nil
	case e.PublicKeyBase58 != "":
		key, err := base58.Decode(e.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyBase58 of '%s': %w", e.ID, err)
		}
		return key, nil
	case e.PublicKeyHex != "":
		key, err := crypto.DecodeHex(e.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyHex of '%s': %w", e.ID, err)
		}
		return key, nil
	case e.PublicKeyJwk != nil:
		key, err := e.PublicKeyJwk.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to decode publicKeyJwk of '%s': %w", e.ID, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("verification method '%s' has no supported public key encoding", e.ID)
	}
}

// DIDDocument represents the structure of a resolved DID Document.
type DIDDocument struct {
	Context            interface{}               `json:"@context,omitempty"`
	ID                 string                    `json:"id"`
	Controller         interface{}               `json:"controller,omitempty"`
	VerificationMethod []VerificationMethodEntry `json:"verificationMethod"`
	Authentication     []interface{}             `json:"authentication,omitempty"`
	AssertionMethod    []interface{}             `json:"assertionMethod,omitempty"`
}

// FindVerificationMethod returns the entry identified by verificationMethodURL.
// Relative entry ids ("#key-1") are resolved against the document id. A bare
// DID selects the first assertion method, or the first verification method
// when the document lists no assertion methods by reference.
func (d *DIDDocument) FindVerificationMethod(verificationMethodURL string) (*VerificationMethodEntry, error) {
	didPart, fragment, hasFragment := strings.Cut(verificationMethodURL, "#")

	if !hasFragment || fragment == "" {
		for _, ref := range d.AssertionMethod {
			if id, ok := ref.(string); ok {
				if entry := d.lookup(id); entry != nil {
					return entry, nil
				}
			}
		}
		if len(d.VerificationMethod) > 0 {
			return &d.VerificationMethod[0], nil
		}
		return nil, fmt.Errorf("%w: DID '%s' has no verification methods", ErrVerificationMethodNotFound, didPart)
	}

	if entry := d.lookup(verificationMethodURL); entry != nil {
		return entry, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrVerificationMethodNotFound, verificationMethodURL)
}

func (d *DIDDocument) lookup(id string) *VerificationMethodEntry {
	if strings.HasPrefix(id, "#") {
		id = d.ID + id
	}

	for i := range d.VerificationMethod {
		entryID := d.VerificationMethod[i].ID
		if strings.HasPrefix(entryID, "#") {
			entryID = d.ID + entryID
		}
		if entryID == id {
			return &d.VerificationMethod[i]
		}
	}
	return nil
}
