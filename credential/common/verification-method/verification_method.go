package verificationmethod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds a single HTTP request to the resolver endpoint.
const DefaultRequestTimeout = 10 * time.Second

var (
	// ErrDIDNotFound is returned when the resolver endpoint does not know the DID.
	ErrDIDNotFound = errors.New("DID not found")

	// ErrVerificationMethodNotFound is returned when a DID document has no matching verification method.
	ErrVerificationMethodNotFound = errors.New("verification method not found")
)

// ResolverOpt configures a Resolver.
type ResolverOpt func(*resolverOptions)

type resolverOptions struct {
	client         *http.Client
	requestTimeout time.Duration
	maxRetries     uint64
	logger         *zap.Logger
}

// WithHTTPClient sets the HTTP client. The client is used as is, without
// instrumentation or timeout changes.
func WithHTTPClient(client *http.Client) ResolverOpt {
	return func(o *resolverOptions) {
		o.client = client
	}
}

// WithRequestTimeout sets the per-request timeout of the default HTTP client.
func WithRequestTimeout(timeout time.Duration) ResolverOpt {
	return func(o *resolverOptions) {
		o.requestTimeout = timeout
	}
}

// WithRetries sets how many times a failed request is retried with exponential
// backoff. Client errors (4xx) are never retried.
func WithRetries(maxRetries uint64) ResolverOpt {
	return func(o *resolverOptions) {
		o.maxRetries = maxRetries
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ResolverOpt {
	return func(o *resolverOptions) {
		o.logger = logger
	}
}

// Resolver is a client for resolving DIDs from a specific endpoint.
type Resolver struct {
	baseURL    string
	client     *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

// NewResolver creates a new DID resolver with a given base URL. DIDs are
// resolved with GET <baseURL>/<did>.
func NewResolver(baseURL string, opts ...ResolverOpt) *Resolver {
	o := &resolverOptions{
		requestTimeout: DefaultRequestTimeout,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		client = &http.Client{
			Timeout:   o.requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Resolver{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		client:     client,
		maxRetries: o.maxRetries,
		logger:     o.logger,
	}
}

// ResolveVerificationMethod resolves the DID of verificationMethodURL and
// returns the public key of the matching verification method.
func (r *Resolver) ResolveVerificationMethod(ctx context.Context, verificationMethodURL string) ([]byte, error) {
	didPart, _, _ := strings.Cut(verificationMethodURL, "#")
	if !strings.HasPrefix(didPart, "did:") {
		return nil, fmt.Errorf("invalid verification method URL, could not extract DID: %s", verificationMethodURL)
	}

	doc, err := r.ResolveToDoc(ctx, didPart)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DID '%s': %w", didPart, err)
	}

	entry, err := doc.FindVerificationMethod(verificationMethodURL)
	if err != nil {
		return nil, err
	}

	return entry.PublicKey()
}

// ResolveToDoc fetches and parses a DID document from the resolver endpoint.
// Both bare DID documents and DID resolution results ({"didDocument": ...})
// are accepted.
func (r *Resolver) ResolveToDoc(ctx context.Context, did string) (*DIDDocument, error) {
	var doc *DIDDocument

	operation := func() error {
		var err error
		doc, err = r.fetch(ctx, did)
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Debug("retrying DID resolution",
			zap.String("did", did),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *Resolver) fetch(ctx context.Context, did string) (*DIDDocument, error) {
	apiURL := r.baseURL + "/" + url.PathEscape(did)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create DID resolver request: %w", err))
	}
	req.Header.Set("Accept", "application/did+json, application/json")

	r.logger.Debug("resolving DID", zap.String("did", did), zap.String("url", apiURL))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request to DID resolver: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrDIDNotFound, did))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, backoff.Permanent(fmt.Errorf("DID resolver API returned non-200 status: %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("DID resolver API returned non-200 status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from DID resolver: %w", err)
	}

	var result struct {
		DIDDocument *DIDDocument `json:"didDocument"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to unmarshal DID document JSON: %w", err))
	}
	if result.DIDDocument != nil {
		return result.DIDDocument, nil
	}

	var doc DIDDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to unmarshal DID document JSON: %w", err))
	}

	return &doc, nil
}
