package unit

import (
	"testing"

	"github.com/fuelroute/fuel-route-backend/config"
	"github.com/fuelroute/fuel-route-backend/internal/bootstrap"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRequiresSecretKeyInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")

	t.Setenv("SECRET_KEY", "not-a-real-secret")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "not-a-real-secret", cfg.App.SecretKey)
}

func TestConfigSecretKeyOptionalInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRET_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.App.Debug)
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)

	gin.SetMode(gin.DebugMode)
	bootstrap.SetGinMode("production", false)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())

	gin.SetMode(gin.DebugMode)
	bootstrap.SetGinMode("production", true)
	assert.Equal(t, gin.DebugMode, gin.Mode(), "DEBUG keeps verbose logging even in production")

	gin.SetMode(gin.DebugMode)
	bootstrap.SetGinMode("development", false)
	assert.Equal(t, gin.DebugMode, gin.Mode())
}
