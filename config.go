package devcred

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by devcred APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credential  CredentialConfig
	Store       StoreConfig
	AccessToken AccessTokenConfig
	Security    SecurityConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Cleanup     CleanupConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig defines a public type used by devcred APIs.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	TTL         time.Duration
	GraceWindow time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by devcred APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
	ScanBatch   int64
}

/*
====================================
ACCESS TOKEN CONFIG
====================================
*/

// AccessTokenConfig defines a public type used by devcred APIs.
//
// AccessTokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessTokenConfig struct {
	Enabled       bool
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by devcred APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableRotateThrottle bool
	MaxRotateAttempts    int
	RotateCooldown       time.Duration

	EnableAuthFailureThrottle bool
	MaxAuthFailures           int
	AuthFailureCooldown       time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by devcred APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by devcred APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
CLEANUP CONFIG
====================================
*/

// CleanupConfig defines a public type used by devcred APIs.
//
// CleanupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CleanupConfig struct {
	ExpiredRetention     time.Duration
	CompromisedRetention time.Duration
	Interval             time.Duration
}

const maxGraceWindow = 5 * time.Minute

func defaultConfig() Config {
	return Config{
		Credential: CredentialConfig{
			TTL:         7 * 24 * time.Hour,
			GraceWindow: 30 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "dc",
			ScanBatch:   100,
		},
		AccessToken: AccessTokenConfig{
			Enabled:       false,
			TTL:           5 * time.Minute,
			SigningMethod: "ed25519",
		},
		Security: SecurityConfig{
			EnableRotateThrottle: true,
			MaxRotateAttempts:    20,
			RotateCooldown:       1 * time.Minute,

			EnableAuthFailureThrottle: false,
			MaxAuthFailures:           10,
			AuthFailureCooldown:       15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Cleanup: CleanupConfig{
			ExpiredRetention:     30 * 24 * time.Hour,
			CompromisedRetention: 72 * time.Hour,
			Interval:             1 * time.Hour,
		},
	}
}

// DefaultConfig returns the baseline configuration. Callers mutate the
// result and hand it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	clone := cfg
	clone.AccessToken.PrivateKey = cloneBytes(cfg.AccessToken.PrivateKey)
	clone.AccessToken.PublicKey = cloneBytes(cfg.AccessToken.PublicKey)
	return clone
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Credential.TTL <= 0 {
		return errors.New("Credential.TTL must be positive")
	}
	if c.Credential.GraceWindow <= 0 {
		return errors.New("Credential.GraceWindow must be positive")
	}
	if c.Credential.GraceWindow > maxGraceWindow {
		return errors.New("Credential.GraceWindow must not exceed 5 minutes")
	}
	if c.Credential.GraceWindow >= c.Credential.TTL {
		return errors.New("Credential.GraceWindow must be shorter than Credential.TTL")
	}

	prefix := strings.TrimSpace(c.Store.RedisPrefix)
	if prefix == "" {
		return errors.New("Store.RedisPrefix required")
	}
	if strings.Contains(prefix, ":") {
		return errors.New("Store.RedisPrefix must not contain ':'")
	}
	if c.Store.ScanBatch <= 0 {
		return errors.New("Store.ScanBatch must be positive")
	}

	if c.AccessToken.Enabled {
		if c.AccessToken.TTL <= 0 {
			return errors.New("AccessToken.TTL must be positive when access tokens are enabled")
		}
		switch c.AccessToken.SigningMethod {
		case "ed25519", "hs256":
		default:
			return errors.New("AccessToken.SigningMethod must be ed25519 or hs256")
		}
		if len(c.AccessToken.PrivateKey) == 0 {
			return errors.New("AccessToken.PrivateKey required when access tokens are enabled")
		}
	}

	if c.Security.EnableRotateThrottle {
		if c.Security.MaxRotateAttempts <= 0 {
			return errors.New("Security.MaxRotateAttempts must be positive when the rotate throttle is enabled")
		}
		if c.Security.RotateCooldown <= 0 {
			return errors.New("Security.RotateCooldown must be positive when the rotate throttle is enabled")
		}
	}

	if c.Security.EnableAuthFailureThrottle {
		if c.Security.MaxAuthFailures <= 0 {
			return errors.New("Security.MaxAuthFailures must be positive when the auth failure throttle is enabled")
		}
		if c.Security.AuthFailureCooldown <= 0 {
			return errors.New("Security.AuthFailureCooldown must be positive when the auth failure throttle is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}

	if c.Cleanup.ExpiredRetention <= 0 {
		return errors.New("Cleanup.ExpiredRetention must be positive")
	}
	if c.Cleanup.CompromisedRetention <= 0 {
		return errors.New("Cleanup.CompromisedRetention must be positive")
	}
	if c.Cleanup.Interval <= 0 {
		return errors.New("Cleanup.Interval must be positive")
	}

	return nil
}
