package verificationmethod

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// ErrUnsupportedMethod is returned when no resolver handles a DID method.
var ErrUnsupportedMethod = errors.New("unsupported DID method")

// MethodRouter dispatches resolution by DID method, e.g. did:key to an
// offline resolver and everything else to an HTTP resolver.
type MethodRouter struct {
	resolvers map[string]provider.Resolver
	fallback  provider.Resolver
}

// NewMethodRouter creates a router. fallback handles methods without a
// registered resolver and may be nil.
func NewMethodRouter(fallback provider.Resolver) *MethodRouter {
	return &MethodRouter{
		resolvers: map[string]provider.Resolver{},
		fallback:  fallback,
	}
}

// Register routes a DID method (e.g. "key", "web") to resolver.
func (m *MethodRouter) Register(method string, resolver provider.Resolver) *MethodRouter {
	m.resolvers[method] = resolver
	return m
}

// ResolveVerificationMethod implements provider.Resolver.
func (m *MethodRouter) ResolveVerificationMethod(ctx context.Context, verificationMethodURL string) ([]byte, error) {
	method, err := DIDMethod(verificationMethodURL)
	if err != nil {
		return nil, err
	}

	if resolver, ok := m.resolvers[method]; ok {
		return resolver.ResolveVerificationMethod(ctx, verificationMethodURL)
	}

	if m.fallback != nil {
		return m.fallback.ResolveVerificationMethod(ctx, verificationMethodURL)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}

// DIDMethod extracts the method name from a DID or DID URL.
func DIDMethod(didURL string) (string, error) {
	parts := strings.SplitN(didURL, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("invalid DID: %s", didURL)
	}

	return parts[1], nil
}
