package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
service_name = "ecommerce-test"

[database]
dsn = "root:root@tcp(localhost:3306)/test"

[auth]
access_token_secret = "a"
refresh_token_secret = "b"

[stripe]
frontend_url = "http://localhost:5173"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "ecommerce-test", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "inr", cfg.Stripe.Currency)
	assert.Equal(t, int64(10), cfg.Stripe.DeliveryCharge)
	assert.Equal(t, 15, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 240, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "shop.events", cfg.Kafka.EventTopic)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `service_name = "x"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
service_name = "x"
[database]
dsn = "dsn"
`))
	assert.Error(t, err, "auth secrets are required")
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{Environment: "prod"}
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "dev"
	assert.False(t, cfg.IsProduction())
}
