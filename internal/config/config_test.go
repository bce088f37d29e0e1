package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8086", cfg.Server.Port)
	assert.Equal(t, "it", cfg.Portal.DefaultLanguage)
	assert.Equal(t, 2*time.Second, cfg.Portal.EnrollReloadDelay)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "fidelity.scans.recorded", cfg.Kafka.Topics.ScanRecorded)
	assert.Equal(t, "fidelity_session", cfg.Auth.SessionCookie)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("ENROLL_RELOAD_DELAY", "3s")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3*time.Second, cfg.Portal.EnrollReloadDelay)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestValidateRejectsDefaultSecretWithSecureCookies(t *testing.T) {
	t.Setenv("SECURE_COOKIES", "true")

	cfg := Load()
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.ErrorIs(t, cfg.Validate(), ErrInsecureSecret)

	t.Setenv("JWT_SECRET", "a-real-secret")
	assert.NoError(t, Load().Validate())
}

func TestValidateAllowsDefaultSecretLocally(t *testing.T) {
	cfg := Load()
	assert.False(t, cfg.Auth.SecureCookies)
	assert.NoError(t, cfg.Validate())
}

func TestTrustedProxies(t *testing.T) {
	assert.Empty(t, Load().Server.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.5")
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.5"}, Load().Server.TrustedProxies)
}
