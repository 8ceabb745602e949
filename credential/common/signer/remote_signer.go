package signer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
)

const DefaultTimeout = 10 * time.Second

// RemoteSignerOpt configures a RemoteSigner.
type RemoteSignerOpt func(*RemoteSigner)

// WithAPIKey sets the value sent in the x-api-key header.
func WithAPIKey(apiKey string) RemoteSignerOpt {
	return func(s *RemoteSigner) {
		s.apiKey = apiKey
	}
}

// WithHTTPClient sets the HTTP client used to reach the signing API.
func WithHTTPClient(client *http.Client) RemoteSignerOpt {
	return func(s *RemoteSigner) {
		s.client = client
	}
}

// WithTimeout bounds a single signing request.
func WithTimeout(timeout time.Duration) RemoteSignerOpt {
	return func(s *RemoteSigner) {
		s.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) RemoteSignerOpt {
	return func(s *RemoteSigner) {
		s.logger = logger
	}
}

// RemoteSigner is a signer that signs a payload using a remote API, so the
// private key never leaves the key store. It implements provider.KeySigner.
//
// The API receives {"payload_hex": "..."} and answers {"signature_hex": "..."}.
// For ecdsa-rdfc-2019 the payload is the SHA-256 digest of the data to sign
// and the answer a 64-byte r||s or 65-byte r||s||v signature; for
// eddsa-jcs-2022 the payload is the data itself and the answer a 64-byte
// Ed25519 signature.
type RemoteSigner struct {
	endpoint           string
	verificationMethod string
	cryptosuite        string
	apiKey             string
	client             *http.Client
	timeout            time.Duration
	logger             *zap.Logger
}

// NewRemoteSigner creates a new RemoteSigner for the key published at
// verificationMethod.
func NewRemoteSigner(endpoint, verificationMethod, cryptosuite string, opts ...RemoteSignerOpt) (*RemoteSigner, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}
	if strings.TrimSpace(verificationMethod) == "" {
		return nil, fmt.Errorf("verification method required")
	}
	if cryptosuite != crypto.CryptosuiteEdDSAJCS2022 && cryptosuite != crypto.CryptosuiteECDSARDFC2019 {
		return nil, fmt.Errorf("unsupported cryptosuite: %s", cryptosuite)
	}

	s := &RemoteSigner{
		endpoint:           endpoint,
		verificationMethod: verificationMethod,
		cryptosuite:        cryptosuite,
		timeout:            DefaultTimeout,
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return s, nil
}

// Sign signs data using the remote API.
func (s *RemoteSigner) Sign(data []byte) ([]byte, error) {
	payload := data
	if s.cryptosuite == crypto.CryptosuiteECDSARDFC2019 {
		digest := sha256.Sum256(data)
		payload = digest[:]
	}

	signature, err := s.request(payload)
	if err != nil {
		return nil, err
	}

	switch s.cryptosuite {
	case crypto.CryptosuiteECDSARDFC2019:
		if len(signature) != 64 && len(signature) != 65 {
			return nil, fmt.Errorf("invalid signature length %d", len(signature))
		}
		return signature[:64], nil
	default:
		if len(signature) != 64 {
			return nil, fmt.Errorf("invalid signature length %d", len(signature))
		}
		return signature, nil
	}
}

func (s *RemoteSigner) request(payload []byte) ([]byte, error) {
	reqBody, err := json.Marshal(map[string]any{
		"payload_hex": hex.EncodeToString(payload),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote signer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote signer http %d", resp.StatusCode)
	}

	var out struct {
		SignatureHex string `json:"signature_hex"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode remote signer response: %w", err)
	}

	signature, err := crypto.DecodeHex(out.SignatureHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signature_hex: %w", err)
	}

	s.logger.Debug("payload signed remotely",
		zap.String("endpoint", s.endpoint),
		zap.String("verificationMethod", s.verificationMethod))

	return signature, nil
}

func (s *RemoteSigner) VerificationMethod() string {
	return s.verificationMethod
}

func (s *RemoteSigner) Cryptosuite() string {
	return s.cryptosuite
}
