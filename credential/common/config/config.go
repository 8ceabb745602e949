package config

import (
	"time"

	"go.uber.org/zap"

	"github.com/firstperson-network/go-dtg-credentials/credential/common/provider"
	verificationmethod "github.com/firstperson-network/go-dtg-credentials/credential/common/verification-method"
	"github.com/firstperson-network/go-dtg-credentials/credential/integrity"
)

// Default values
const (
	DefaultResolverURL       = "https://resolver.firstperson.network/1.0/identifiers"
	DefaultResolutionTimeout = integrity.DefaultResolutionTimeout
	DefaultCacheSize         = 256
	DefaultCacheTTL          = 5 * time.Minute
)

// Config holds the configuration for verification method resolution.
type Config struct {
	ResolverURL       string
	ResolutionTimeout time.Duration
	CacheSize         int
	CacheTTL          time.Duration
	Retries           uint64 // HTTP retries after the first attempt
}

// New creates a new Config instance with the provided values.
// If a value is empty/zero, it will use the default value.
// Pass an empty Config{} to use all defaults.
func New(cfg Config) *Config {
	result := &Config{
		ResolverURL:       DefaultResolverURL,
		ResolutionTimeout: DefaultResolutionTimeout,
		CacheSize:         DefaultCacheSize,
		CacheTTL:          DefaultCacheTTL,
	}

	if cfg.ResolverURL != "" {
		result.ResolverURL = cfg.ResolverURL
	}
	if cfg.ResolutionTimeout > 0 {
		result.ResolutionTimeout = cfg.ResolutionTimeout
	}
	if cfg.CacheSize > 0 {
		result.CacheSize = cfg.CacheSize
	}
	if cfg.CacheTTL > 0 {
		result.CacheTTL = cfg.CacheTTL
	}
	result.Retries = cfg.Retries

	return result
}

// Resolver builds the resolver chain: did:key is resolved locally, every
// other method goes through the cached HTTP resolver at ResolverURL.
func (c *Config) Resolver(logger *zap.Logger) provider.Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	remote := verificationmethod.NewResolver(c.ResolverURL,
		verificationmethod.WithRequestTimeout(c.ResolutionTimeout),
		verificationmethod.WithRetries(c.Retries),
		verificationmethod.WithLogger(logger),
	)

	return verificationmethod.NewMethodRouter(
		verificationmethod.NewCachingResolver(remote, c.CacheSize, c.CacheTTL, logger),
	).Register("key", verificationmethod.NewDIDKeyResolver())
}

// VerifierOptions returns the integrity options matching c.
func (c *Config) VerifierOptions(logger *zap.Logger) []integrity.Option {
	opts := []integrity.Option{
		integrity.WithResolver(c.Resolver(logger)),
		integrity.WithResolutionTimeout(c.ResolutionTimeout),
	}
	if logger != nil {
		opts = append(opts, integrity.WithLogger(logger))
	}
	return opts
}
