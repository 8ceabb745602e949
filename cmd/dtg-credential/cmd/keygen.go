package cmd

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
)

const (
	flagKeyType = "key-type"

	keyTypeEd25519   = "ed25519"
	keyTypeSecp256k1 = "secp256k1"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generates a signing key bound to a did:key",
	Long: `Generates a signing key and prints it with its did:key identifier.

Ed25519 keys sign with eddsa-jcs-2022, secp256k1 keys with ecdsa-rdfc-2019.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().String(flagKeyType, keyTypeEd25519, "key type: ed25519 or secp256k1")
}

// keyInfo is the JSON output of keygen.
type keyInfo struct {
	KeyType            string `json:"keyType"`
	Cryptosuite        string `json:"cryptosuite"`
	PrivateKey         string `json:"privateKey"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
	DID                string `json:"did"`
	VerificationMethod string `json:"verificationMethod"`
}

// keyPair is a signer whose key material can be exported.
type keyPair interface {
	Sign(data []byte) ([]byte, error)
	VerificationMethod() string
	Cryptosuite() string
	PublicKey() []byte
	PrivateKeyHex() string
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	keyType, err := parseKeyType(conf.GetString(flagKeyType))
	if err != nil {
		return err
	}

	key, err := generateKey(keyType)
	if err != nil {
		return err
	}

	return writeKeyInfo(cmd.OutOrStdout(), keyType, key)
}

func parseKeyType(value string) (crypto.KeyType, error) {
	switch strings.ToLower(value) {
	case keyTypeEd25519:
		return crypto.KeyTypeEd25519, nil
	case keyTypeSecp256k1:
		return crypto.KeyTypeSecp256k1, nil
	default:
		return 0, fmt.Errorf("unsupported key type %q, expected %s or %s", value, keyTypeEd25519, keyTypeSecp256k1)
	}
}

func generateKey(keyType crypto.KeyType) (keyPair, error) {
	if keyType == crypto.KeyTypeSecp256k1 {
		key, err := crypto.GenerateSecp256k1Signer()
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	key, err := crypto.GenerateEd25519Signer(rand.Reader)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// loadKey restores a signer from its hex private key. An empty
// verificationMethod binds the key to its did:key.
func loadKey(keyType crypto.KeyType, privateKeyHex, verificationMethod string) (keyPair, error) {
	if keyType == crypto.KeyTypeSecp256k1 {
		key, err := crypto.NewSecp256k1Signer(privateKeyHex, verificationMethod)
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	key, err := crypto.NewEd25519SignerFromHex(privateKeyHex, verificationMethod)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func writeKeyInfo(w io.Writer, keyType crypto.KeyType, key keyPair) error {
	multikey, err := crypto.EncodeMultikey(keyType, key.PublicKey())
	if err != nil {
		return err
	}

	did, err := crypto.DIDKey(keyType, key.PublicKey())
	if err != nil {
		return err
	}

	return writeJSON(w, keyInfo{
		KeyType:            strings.ToLower(keyType.String()),
		Cryptosuite:        key.Cryptosuite(),
		PrivateKey:         key.PrivateKeyHex(),
		PublicKeyMultibase: multikey,
		DID:                did,
		VerificationMethod: key.VerificationMethod(),
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
