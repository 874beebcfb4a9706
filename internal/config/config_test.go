package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, time.Minute, cfg.API.CatalogTTL)
	assert.Equal(t, "@every 15m", cfg.Worker.AlertSchedule)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
}

func TestLoadReadsEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.Origins())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoadRequiresWebhookSecret(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "stripe webhook secret")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "jb", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=jb sslmode=disable", d.DSN())
}

func TestLoadReadsMetricsToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_METRICS_TOKEN", "scrape-me")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "scrape-me", cfg.API.MetricsToken)
}

func TestLoadDatabasePool(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)

	t.Setenv("DATABASE_MAX_OPEN_CONNS", "50")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "5m")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
}
