package verificationmethod

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
)

func newTestDocument(t *testing.T, did string) (*DIDDocument, []byte) {
	t.Helper()

	signer, err := crypto.GenerateEd25519Signer(rand.Reader)
	require.NoError(t, err)
	publicKey := signer.PublicKey()

	multikey, err := crypto.EncodeMultikey(crypto.KeyTypeEd25519, publicKey)
	require.NoError(t, err)

	return &DIDDocument{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      did,
		VerificationMethod: []VerificationMethodEntry{
			{ID: did + "#key-1", Type: "Multikey", Controller: did, PublicKeyMultibase: multikey},
			{ID: "#key-2", Type: "Ed25519VerificationKey2018", Controller: did, PublicKeyBase58: base58.Encode(publicKey)},
			{ID: did + "#key-3", Type: "EcdsaSecp256k1VerificationKey2019", Controller: did, PublicKeyHex: hexutil.Encode(publicKey)},
		},
		AssertionMethod: []interface{}{did + "#key-2"},
	}, publicKey
}

func TestResolver_ResolveVerificationMethod(t *testing.T) {
	did := "did:web:issuer.example"
	doc, publicKey := newTestDocument(t, did)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/did:web:issuer.example", r.URL.Path)
		w.Header().Set("Content-Type", "application/did+json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	resolver := NewResolver(server.URL)

	tests := []struct {
		name               string
		verificationMethod string
		expectError        bool
	}{
		{name: "Multibase key", verificationMethod: did + "#key-1"},
		{name: "Relative id with base58 key", verificationMethod: did + "#key-2"},
		{name: "Hex key", verificationMethod: did + "#key-3"},
		{name: "Bare DID selects assertion method", verificationMethod: did},
		{name: "Unknown fragment", verificationMethod: did + "#key-9", expectError: true},
		{name: "Not a DID", verificationMethod: "https://example.com#key-1", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := resolver.ResolveVerificationMethod(context.Background(), tt.verificationMethod)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, publicKey, key)
		})
	}
}

func TestResolver_ResolutionResult(t *testing.T) {
	did := "did:web:issuer.example"
	doc, publicKey := newTestDocument(t, did)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"didDocument":           doc,
			"didResolutionMetadata": map[string]interface{}{"contentType": "application/did+json"},
		})
	}))
	defer server.Close()

	key, err := NewResolver(server.URL).ResolveVerificationMethod(context.Background(), did+"#key-1")
	require.NoError(t, err)
	assert.Equal(t, publicKey, key)
}

func TestResolver_NotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewResolver(server.URL, WithRetries(3)).ResolveVerificationMethod(context.Background(), "did:web:missing#key-1")
	assert.ErrorIs(t, err, ErrDIDNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors must not be retried")
}

func TestResolver_RetriesServerErrors(t *testing.T) {
	did := "did:web:issuer.example"
	doc, publicKey := newTestDocument(t, did)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer server.Close()

	key, err := NewResolver(server.URL, WithRetries(5)).ResolveVerificationMethod(context.Background(), did+"#key-1")
	require.NoError(t, err)
	assert.Equal(t, publicKey, key)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestResolver_NoRetriesByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewResolver(server.URL).ResolveVerificationMethod(context.Background(), "did:web:issuer.example#key-1")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolver_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewResolver(server.URL).ResolveVerificationMethod(context.Background(), "did:web:issuer.example#key-1")
	assert.Error(t, err)
}

func TestResolver_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewResolver(server.URL).ResolveVerificationMethod(ctx, "did:web:slow#key-1")
	assert.Error(t, err)
}

func TestVerificationMethodEntry_PublicKey(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	tests := []struct {
		name        string
		entry       VerificationMethodEntry
		expected    []byte
		expectError bool
	}{
		{name: "Raw multibase", entry: VerificationMethodEntry{ID: "a", PublicKeyMultibase: "z" + base58.Encode(raw)}, expected: raw},
		{name: "Base58", entry: VerificationMethodEntry{ID: "b", PublicKeyBase58: base58.Encode(raw)}, expected: raw},
		{name: "Hex without prefix", entry: VerificationMethodEntry{ID: "c", PublicKeyHex: "01020304"}, expected: raw},
		{name: "Hex with prefix", entry: VerificationMethodEntry{ID: "d", PublicKeyHex: "0x01020304"}, expected: raw},
		{name: "Bad base58", entry: VerificationMethodEntry{ID: "e", PublicKeyBase58: "0OIl"}, expectError: true},
		{name: "No key", entry: VerificationMethodEntry{ID: "f"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.entry.PublicKey()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestDIDKeyResolver(t *testing.T) {
	signer, err := crypto.GenerateEd25519Signer(rand.Reader)
	require.NoError(t, err)

	key, err := NewDIDKeyResolver().ResolveVerificationMethod(context.Background(), signer.VerificationMethod())
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), key)

	_, err = NewDIDKeyResolver().ResolveVerificationMethod(context.Background(), "did:web:example.com#key-1")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDIDKeyResolver().ResolveVerificationMethod(ctx, signer.VerificationMethod())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJWK_PublicKey(t *testing.T) {
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	secp, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	uncompressed := ethcrypto.FromECDSAPub(&secp.PublicKey)
	b64 := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name        string
		jwk         JWK
		expected    []byte
		expectError bool
	}{
		{name: "Ed25519", jwk: JWK{Kty: "OKP", Crv: "Ed25519", X: b64(edPub)}, expected: edPub},
		{
			name:     "secp256k1",
			jwk:      JWK{Kty: "EC", Crv: "secp256k1", X: b64(uncompressed[1:33]), Y: b64(uncompressed[33:])},
			expected: ethcrypto.CompressPubkey(&secp.PublicKey),
		},
		{name: "Short Ed25519", jwk: JWK{Kty: "OKP", Crv: "Ed25519", X: b64(edPub[:16])}, expectError: true},
		{name: "Point not on curve", jwk: JWK{Kty: "EC", Crv: "secp256k1", X: b64(make([]byte, 32)), Y: b64(make([]byte, 32))}, expectError: true},
		{name: "P-256", jwk: JWK{Kty: "EC", Crv: "P-256", X: b64(uncompressed[1:33]), Y: b64(uncompressed[33:])}, expectError: true},
		{name: "Bad encoding", jwk: JWK{Kty: "OKP", Crv: "Ed25519", X: "***"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := VerificationMethodEntry{ID: "#key-1", PublicKeyJwk: &tt.jwk}
			key, err := entry.PublicKey()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}
