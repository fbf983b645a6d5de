package devcred

import "time"

type SecurityReport struct {
	SigningAlgorithm     string
	AccessTokensEnabled  bool
	AccessTTL            time.Duration
	CredentialTTL        time.Duration
	GraceWindow          time.Duration
	RotateThrottleActive bool
	AuditEnabled         bool
	MetricsEnabled       bool
	CleanupInterval      time.Duration
	ExpiredRetention     time.Duration
	CompromisedRetention time.Duration
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	rotateThrottle := e.config.Security.EnableRotateThrottle &&
		e.config.Security.MaxRotateAttempts > 0 &&
		e.config.Security.RotateCooldown > 0

	return SecurityReport{
		SigningAlgorithm:     e.config.AccessToken.SigningMethod,
		AccessTokensEnabled:  e.config.AccessToken.Enabled,
		AccessTTL:            e.config.AccessToken.TTL,
		CredentialTTL:        e.config.Credential.TTL,
		GraceWindow:          e.config.Credential.GraceWindow,
		RotateThrottleActive: rotateThrottle,
		AuditEnabled:         e.config.Audit.Enabled,
		MetricsEnabled:       e.config.Metrics.Enabled,
		CleanupInterval:      e.config.Cleanup.Interval,
		ExpiredRetention:     e.config.Cleanup.ExpiredRetention,
		CompromisedRetention: e.config.Cleanup.CompromisedRetention,
	}
}
