package devcred

import (
	"errors"
	"time"

	"github.com/MrEthical07/devcred/credential"
	"github.com/MrEthical07/devcred/internal"
	"github.com/MrEthical07/devcred/internal/flows"
	"github.com/MrEthical07/devcred/internal/rate"
	"github.com/MrEthical07/devcred/jwt"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by devcred APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	clock  Clock

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock may return an error when input validation, dependency calls, or security checks fail.
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	engine := &Engine{
		config: cfg,
		clock:  clock,
	}

	engine.credStore = credential.NewStore(b.redis, cfg.Store.RedisPrefix, clock.Now)
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableRotateThrottle: cfg.Security.EnableRotateThrottle,
		MaxRotateAttempts:    cfg.Security.MaxRotateAttempts,
		RotateCooldown:       cfg.Security.RotateCooldown,

		EnableAuthFailureThrottle: cfg.Security.EnableAuthFailureThrottle,
		MaxAuthFailures:           cfg.Security.MaxAuthFailures,
		AuthFailureCooldown:       cfg.Security.AuthFailureCooldown,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.AccessToken.Enabled {
		manager, err := jwt.NewManager(jwt.Config{
			AccessTTL:     cfg.AccessToken.TTL,
			SigningMethod: jwt.SigningMethod(cfg.AccessToken.SigningMethod),
			PrivateKey:    cfg.AccessToken.PrivateKey,
			PublicKey:     cfg.AccessToken.PublicKey,
			Issuer:        cfg.AccessToken.Issuer,
			Audience:      cfg.AccessToken.Audience,
			Leeway:        cfg.AccessToken.Leeway,
		})
		if err != nil {
			return nil, err
		}
		engine.jwtManager = manager
	}

	engine.flows = flows.Deps{
		Rotate: flows.RotateDeps{
			Now:              clock.Now,
			DecodeCredential: internal.DecodeCredential,
			NewSecret:        internal.NewCredentialSecret,
			HashSecret:       internal.HashCredentialSecret,
			EncodeCredential: internal.EncodeCredential,
			GraceWindow:      func() time.Duration { return cfg.Credential.GraceWindow },
			CredentialTTL:    func() time.Duration { return cfg.Credential.TTL },
			RateLimiter:      engine.rateLimiter,
			Store:            engine.credStore,
		},
		Authenticate: flows.AuthenticateDeps{
			Now:              clock.Now,
			DecodeCredential: internal.DecodeCredential,
			HashSecret:       internal.HashCredentialSecret,
			HashesEqual:      internal.HashesEqual,
			RateLimiter:      engine.rateLimiter,
			Store:            engine.credStore,
		},
	}

	b.built = true
	return engine, nil
}
