package integrity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/canonical"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/dto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

const testContextURL = "https://example.org/test/v1"

type testDocument struct {
	content map[string]interface{}
	proof   *dto.Proof
}

func newTestDocument() *testDocument {
	return &testDocument{content: map[string]interface{}{
		"@context":  []interface{}{testContextURL},
		"type":      []interface{}{"VerifiableCredential", "RelationshipCredential"},
		"issuer":    "did:example:A",
		"validFrom": "2025-01-01T00:00:00Z",
		"credentialSubject": map[string]interface{}{
			"id": "did:example:B",
		},
	}}
}

func (d *testDocument) Proof() *dto.Proof {
	if d.proof == nil {
		return nil
	}
	p := *d.proof
	return &p
}

func (d *testDocument) UnsecuredDocument() (map[string]interface{}, error) {
	raw, err := json.Marshal(d.content)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	return out, json.Unmarshal(raw, &out)
}

func (d *testDocument) AttachProof(proof dto.Proof) error {
	if d.proof != nil {
		return ErrAlreadySigned
	}
	d.proof = &proof
	return nil
}

type failingSigner struct {
	*crypto.Ed25519Signer
}

func (failingSigner) Sign([]byte) ([]byte, error) {
	return nil, errors.New("hsm offline")
}

func newEd25519Signer(t *testing.T) *crypto.Ed25519Signer {
	t.Helper()
	signer, err := crypto.GenerateEd25519Signer(rand.Reader)
	require.NoError(t, err)
	return signer
}

func rdfcSuite() crypto.Suite {
	return crypto.NewECDSARDFC2019(canonical.NewRDFC(canonical.WithContext(testContextURL, map[string]interface{}{
		"@context": map[string]interface{}{
			"@vocab": "https://example.org/vocab#",
			"id":     "@id",
			"type":   "@type",
		},
	})))
}

func TestSignVerify_RoundTrip(t *testing.T) {
	edSigner := newEd25519Signer(t)
	secpSigner, err := crypto.GenerateSecp256k1Signer()
	require.NoError(t, err)

	tests := []struct {
		name      string
		signer    provider.KeySigner
		publicKey []byte
	}{
		{name: "eddsa-jcs-2022", signer: edSigner, publicKey: edSigner.PublicKey()},
		{name: "ecdsa-rdfc-2019", signer: secpSigner, publicKey: secpSigner.PublicKey()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []Option{WithSuite(rdfcSuite()), WithLogger(zaptest.NewLogger(t))}
			doc := newTestDocument()

			proof, err := NewSigner(opts...).Sign(context.Background(), doc, tt.signer)
			require.NoError(t, err)
			require.NotNil(t, doc.Proof())
			assert.Equal(t, *proof, *doc.Proof())
			assert.Equal(t, dto.DataIntegrityProof, proof.Type)
			assert.Equal(t, tt.signer.Cryptosuite(), proof.Cryptosuite)
			assert.Equal(t, dto.ProofPurposeAssertionMethod, proof.ProofPurpose)
			assert.Equal(t, tt.signer.VerificationMethod(), proof.VerificationMethod)

			assert.NoError(t, NewVerifier(opts...).Verify(context.Background(), doc, tt.publicKey))

			doc.content["issuer"] = "did:example:M"
			assert.ErrorIs(t, NewVerifier(opts...).Verify(context.Background(), doc, tt.publicKey), ErrSignatureMismatch)
		})
	}
}

func TestSign_CreatedTimestamp(t *testing.T) {
	created := time.Date(2025, 3, 4, 5, 6, 7, 890, time.FixedZone("X", 3600))
	doc := newTestDocument()

	proof, err := NewSigner(WithCreated(created)).Sign(context.Background(), doc, newEd25519Signer(t))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T04:06:07Z", proof.Created)
}

func TestSign_AlreadySigned(t *testing.T) {
	signer := newEd25519Signer(t)
	doc := newTestDocument()

	first, err := NewSigner().Sign(context.Background(), doc, signer)
	require.NoError(t, err)

	_, err = NewSigner().Sign(context.Background(), doc, newEd25519Signer(t))
	assert.ErrorIs(t, err, ErrAlreadySigned)
	assert.Equal(t, *first, *doc.Proof())
}

func TestSign_ProviderFailure(t *testing.T) {
	doc := newTestDocument()

	_, err := NewSigner().Sign(context.Background(), doc, failingSigner{newEd25519Signer(t)})
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Nil(t, doc.Proof(), "no partial proof may be attached")

	_, err = NewSigner().Sign(context.Background(), doc, nil)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Nil(t, doc.Proof())
}

type foreignSuiteSigner struct {
	*crypto.Ed25519Signer
}

func (foreignSuiteSigner) Cryptosuite() string {
	return "bbs-2023"
}

func TestSign_UnsupportedCryptosuite(t *testing.T) {
	doc := newTestDocument()

	_, err := NewSigner().Sign(context.Background(), doc, foreignSuiteSigner{newEd25519Signer(t)})
	assert.ErrorIs(t, err, ErrUnsupportedCryptosuite)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Nil(t, doc.Proof())
}

func TestSign_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := newTestDocument()
	_, err := NewSigner().Sign(ctx, doc, newEd25519Signer(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, doc.Proof())
}

func TestVerify_NotSigned(t *testing.T) {
	err := NewVerifier().Verify(context.Background(), newTestDocument(), newEd25519Signer(t).PublicKey())
	assert.ErrorIs(t, err, ErrNotSigned)
}

func TestVerify_WrongKey(t *testing.T) {
	doc := newTestDocument()
	_, err := NewSigner().Sign(context.Background(), doc, newEd25519Signer(t))
	require.NoError(t, err)

	err = NewVerifier().Verify(context.Background(), doc, newEd25519Signer(t).PublicKey())
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	err = NewVerifier().Verify(context.Background(), doc, []byte{})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerify_MalformedProof(t *testing.T) {
	signer := newEd25519Signer(t)

	tests := []struct {
		name     string
		mutate   func(p *dto.Proof)
		expected []error
	}{
		{
			name:     "Missing proof value",
			mutate:   func(p *dto.Proof) { p.ProofValue = "" },
			expected: []error{ErrSignatureMismatch, ErrMalformedProof},
		},
		{
			name:     "Undecodable proof value",
			mutate:   func(p *dto.Proof) { p.ProofValue = "z0OIl" },
			expected: []error{ErrSignatureMismatch},
		},
		{
			name:     "Wrong proof type",
			mutate:   func(p *dto.Proof) { p.Type = "Ed25519Signature2020" },
			expected: []error{ErrSignatureMismatch, ErrMalformedProof},
		},
		{
			name:     "Wrong proof purpose",
			mutate:   func(p *dto.Proof) { p.ProofPurpose = "authentication" },
			expected: []error{ErrSignatureMismatch, ErrMalformedProof},
		},
		{
			name:     "Invalid created",
			mutate:   func(p *dto.Proof) { p.Created = "yesterday" },
			expected: []error{ErrSignatureMismatch, ErrMalformedProof},
		},
		{
			name:     "Unknown cryptosuite",
			mutate:   func(p *dto.Proof) { p.Cryptosuite = "bbs-2023" },
			expected: []error{ErrSignatureMismatch, ErrUnsupportedCryptosuite},
		},
		{
			name:     "Changed creation time",
			mutate:   func(p *dto.Proof) { p.Created = "2020-01-01T00:00:00Z" },
			expected: []error{ErrSignatureMismatch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument()
			_, err := NewSigner().Sign(context.Background(), doc, signer)
			require.NoError(t, err)

			tt.mutate(doc.proof)

			err = NewVerifier().Verify(context.Background(), doc, signer.PublicKey())
			for _, target := range tt.expected {
				assert.ErrorIs(t, err, target)
			}
		})
	}
}

func TestVerify_DoesNotMutate(t *testing.T) {
	signer := newEd25519Signer(t)
	doc := newTestDocument()
	_, err := NewSigner().Sign(context.Background(), doc, signer)
	require.NoError(t, err)

	before, err := json.Marshal(doc.content)
	require.NoError(t, err)
	proofBefore := *doc.Proof()

	for i := 0; i < 2; i++ {
		assert.NoError(t, NewVerifier().Verify(context.Background(), doc, signer.PublicKey()))
	}

	after, err := json.Marshal(doc.content)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, proofBefore, *doc.Proof())
}

func TestVerify_ResolvedKey(t *testing.T) {
	signer := newEd25519Signer(t)
	other := newEd25519Signer(t)

	doc := newTestDocument()
	_, err := NewSigner().Sign(context.Background(), doc, signer)
	require.NoError(t, err)

	keys := map[string][]byte{signer.VerificationMethod(): signer.PublicKey()}
	resolver := provider.ResolverFunc(func(_ context.Context, vm string) ([]byte, error) {
		if key, ok := keys[vm]; ok {
			return key, nil
		}
		return nil, errors.New("unknown verification method")
	})

	tests := []struct {
		name     string
		resolver provider.Resolver
		expected error
	}{
		{name: "Resolved", resolver: resolver},
		{
			name:     "Resolver failure",
			resolver: provider.ResolverFunc(func(context.Context, string) ([]byte, error) { return nil, errors.New("unreachable") }),
			expected: ErrKeyResolutionFailed,
		},
		{
			name:     "Empty key",
			resolver: provider.ResolverFunc(func(context.Context, string) ([]byte, error) { return nil, nil }),
			expected: ErrKeyResolutionFailed,
		},
		{
			name:     "Resolved wrong key",
			resolver: provider.ResolverFunc(func(context.Context, string) ([]byte, error) { return other.PublicKey(), nil }),
			expected: ErrSignatureMismatch,
		},
		{name: "No resolver", resolver: nil, expected: ErrKeyResolutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewVerifier(WithResolver(tt.resolver)).Verify(context.Background(), doc, nil)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
			if tt.expected == ErrKeyResolutionFailed {
				assert.NotErrorIs(t, err, ErrSignatureMismatch)
			}
		})
	}
}

func TestVerify_ResolutionTimeout(t *testing.T) {
	signer := newEd25519Signer(t)
	doc := newTestDocument()
	_, err := NewSigner().Sign(context.Background(), doc, signer)
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)

	// ignores ctx on purpose
	stuck := provider.ResolverFunc(func(context.Context, string) ([]byte, error) {
		<-release
		return signer.PublicKey(), nil
	})

	start := time.Now()
	err = NewVerifier(WithResolver(stuck), WithResolutionTimeout(50*time.Millisecond)).Verify(context.Background(), doc, nil)
	assert.ErrorIs(t, err, ErrKeyResolutionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestVerifyWith_DirectKeyIgnoresResolver(t *testing.T) {
	signer := newEd25519Signer(t)
	doc := newTestDocument()
	_, err := NewSigner().Sign(context.Background(), doc, signer)
	require.NoError(t, err)

	called := false
	resolver := provider.ResolverFunc(func(context.Context, string) ([]byte, error) {
		called = true
		return nil, errors.New("must not be called")
	})

	err = NewVerifier(WithResolver(resolver)).VerifyWith(context.Background(), doc, DirectKey(signer.PublicKey()))
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestHashData_BindsProofConfiguration(t *testing.T) {
	suite := crypto.NewEdDSAJCS2022()
	doc, err := newTestDocument().UnsecuredDocument()
	require.NoError(t, err)

	proof := dto.Proof{
		Type:               dto.DataIntegrityProof,
		Cryptosuite:        suite.Name(),
		Created:            "2025-01-01T00:00:00Z",
		VerificationMethod: "did:example:A#key-1",
		ProofPurpose:       dto.ProofPurposeAssertionMethod,
	}

	a, err := hashData(suite, proof, doc)
	require.NoError(t, err)
	assert.Len(t, a, 64)

	proof.VerificationMethod = "did:example:A#key-2"
	b, err := hashData(suite, proof, doc)
	require.NoError(t, err)
	assert.Equal(t, a[32:], b[32:])
	assert.NotEqual(t, a[:32], b[:32])
}
