package integrity

import (
	"time"

	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/crypto"
	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
)

// DefaultResolutionTimeout bounds DID resolution during verification.
const DefaultResolutionTimeout = 10 * time.Second

var defaultSuites = []crypto.Suite{
	crypto.NewEdDSAJCS2022(),
	crypto.NewECDSARDFC2019(nil),
}

// Option configures a Signer or a Verifier.
type Option func(*options)

type options struct {
	suites            map[string]crypto.Suite
	now               func() time.Time
	resolver          provider.Resolver
	resolutionTimeout time.Duration
	logger            *zap.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		suites:            map[string]crypto.Suite{},
		now:               time.Now,
		resolutionTimeout: DefaultResolutionTimeout,
		logger:            zap.NewNop(),
	}
	for _, s := range defaultSuites {
		o.suites[s.Name()] = s
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithSuite registers a cryptosuite, replacing any suite of the same name.
func WithSuite(suite crypto.Suite) Option {
	return func(o *options) {
		o.suites[suite.Name()] = suite
	}
}

// WithClock sets the clock used for proof creation time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithCreated fixes the proof creation time.
func WithCreated(created time.Time) Option {
	return WithClock(func() time.Time { return created })
}

// WithResolver sets the resolver used when no public key is supplied to Verify.
func WithResolver(resolver provider.Resolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

// WithResolutionTimeout bounds each key resolution. Non-positive values keep the default.
func WithResolutionTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.resolutionTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
