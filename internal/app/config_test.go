package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", "c")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BackendURL)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 30*time.Second, cfg.LookupCacheTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("CSRF_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := Config{CSRFSecret: "c", BackendURL: "http://backend:3000", SubmitTimeout: time.Second}
	require.NoError(t, base.Validate())

	bad := base
	bad.BackendURL = "backend"
	assert.Error(t, bad.Validate())

	bad = base
	bad.SubmitTimeout = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.BackendRateLimit = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.RedisDB = -1
	assert.Error(t, bad.Validate())
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
