package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Food.StartRadius)
	assert.Equal(t, 800, cfg.Food.MaxRadius)
	assert.InDelta(t, 4.0, cfg.Food.AutoSelectRating, 0.001)
	assert.Equal(t, 2048, cfg.Cache.MaxEntries)
	assert.Equal(t, 6, cfg.Cache.PlacesTTLHours)
	assert.Equal(t, 128, cfg.Collectible.MaxVenueLength)
	assert.NotEmpty(t, cfg.Anthropic.VisionModel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SNAPATLAS_SERVER_PORT", "9191")
	t.Setenv("SNAPATLAS_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
