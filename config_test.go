package devcred

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.Credential.TTL = 0 },
			wantSub: "Credential.TTL",
		},
		{
			name:    "zero grace window",
			mutate:  func(c *Config) { c.Credential.GraceWindow = 0 },
			wantSub: "Credential.GraceWindow",
		},
		{
			name:    "grace window over cap",
			mutate:  func(c *Config) { c.Credential.GraceWindow = 10 * time.Minute },
			wantSub: "5 minutes",
		},
		{
			name: "grace window not shorter than ttl",
			mutate: func(c *Config) {
				c.Credential.TTL = 30 * time.Second
				c.Credential.GraceWindow = 30 * time.Second
			},
			wantSub: "shorter than",
		},
		{
			name:    "empty prefix",
			mutate:  func(c *Config) { c.Store.RedisPrefix = "  " },
			wantSub: "RedisPrefix",
		},
		{
			name:    "prefix with separator",
			mutate:  func(c *Config) { c.Store.RedisPrefix = "dc:prod" },
			wantSub: "':'",
		},
		{
			name:    "zero scan batch",
			mutate:  func(c *Config) { c.Store.ScanBatch = 0 },
			wantSub: "ScanBatch",
		},
		{
			name: "access tokens without key",
			mutate: func(c *Config) {
				c.AccessToken.Enabled = true
				c.AccessToken.PrivateKey = nil
			},
			wantSub: "PrivateKey",
		},
		{
			name: "bad signing method",
			mutate: func(c *Config) {
				c.AccessToken.Enabled = true
				c.AccessToken.SigningMethod = "rs256"
				c.AccessToken.PrivateKey = []byte("k")
			},
			wantSub: "SigningMethod",
		},
		{
			name: "throttle without attempts",
			mutate: func(c *Config) {
				c.Security.EnableRotateThrottle = true
				c.Security.MaxRotateAttempts = 0
			},
			wantSub: "MaxRotateAttempts",
		},
		{
			name: "auth throttle without failures",
			mutate: func(c *Config) {
				c.Security.EnableAuthFailureThrottle = true
				c.Security.MaxAuthFailures = 0
			},
			wantSub: "MaxAuthFailures",
		},
		{
			name: "auth throttle without cooldown",
			mutate: func(c *Config) {
				c.Security.EnableAuthFailureThrottle = true
				c.Security.AuthFailureCooldown = 0
			},
			wantSub: "AuthFailureCooldown",
		},
		{
			name: "audit without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantSub: "BufferSize",
		},
		{
			name:    "zero expired retention",
			mutate:  func(c *Config) { c.Cleanup.ExpiredRetention = 0 },
			wantSub: "ExpiredRetention",
		},
		{
			name:    "zero cleanup interval",
			mutate:  func(c *Config) { c.Cleanup.Interval = 0 },
			wantSub: "Interval",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected error mentioning %q, got %q", tc.wantSub, err.Error())
			}
		})
	}
}

func TestCloneConfigCopiesKeyMaterial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccessToken.PrivateKey = []byte("secret-key")

	clone := cloneConfig(cfg)
	clone.AccessToken.PrivateKey[0] = 'X'

	if cfg.AccessToken.PrivateKey[0] != 's' {
		t.Fatal("clone must not alias original key material")
	}
}
