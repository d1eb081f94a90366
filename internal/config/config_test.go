package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.Engine.ChunkPages)
	assert.Equal(t, 1, cfg.Engine.ChunkOverlap)
	assert.Equal(t, 10, cfg.Worker.PollIntervalSecs)
	assert.Equal(t, 4, cfg.Worker.ChunkConcurrency)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("FINSIGHT_DB_HOST", "db.internal")
	t.Setenv("FINSIGHT_ENGINE_CHUNK_PAGES", "5")
	t.Setenv("FINSIGHT_CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5, cfg.Engine.ChunkPages)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "finsight", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@localhost:5432/finsight?sslmode=disable", d.DSN())
}
