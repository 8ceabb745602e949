package integrity

import (
	"context"
	"fmt"
	"time"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// KeySource supplies the public key for a proof's verification method.
type KeySource interface {
	PublicKey(ctx context.Context, verificationMethod string) ([]byte, error)
}

// DirectKey is a public key supplied by the caller. The verification method
// of the proof is ignored.
type DirectKey []byte

// PublicKey implements KeySource.
func (k DirectKey) PublicKey(_ context.Context, _ string) ([]byte, error) {
	return []byte(k), nil
}

// ResolvedKey resolves the verification method through a DID resolver.
// Every failure, including a missing resolver and the timeout, is reported as
// ErrKeyResolutionFailed. No retries are made.
type ResolvedKey struct {
	Resolver provider.Resolver
	Timeout  time.Duration
}

type resolution struct {
	key []byte
	err error
}

// PublicKey implements KeySource. It returns when the timeout expires even if
// the resolver does not observe context cancellation.
func (k ResolvedKey) PublicKey(ctx context.Context, verificationMethod string) ([]byte, error) {
	if k.Resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured for '%s'", ErrKeyResolutionFailed, verificationMethod)
	}

	timeout := k.Timeout
	if timeout <= 0 {
		timeout = DefaultResolutionTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan resolution, 1)
	go func() {
		key, err := k.Resolver.ResolveVerificationMethod(ctx, verificationMethod)
		done <- resolution{key: key, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: '%s': %w", ErrKeyResolutionFailed, verificationMethod, res.err)
		}
		if len(res.key) == 0 {
			return nil, fmt.Errorf("%w: '%s': resolver returned no key", ErrKeyResolutionFailed, verificationMethod)
		}
		return res.key, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: '%s': %w", ErrKeyResolutionFailed, verificationMethod, ctx.Err())
	}
}
