package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestro/pkg/models"
)

func TestParse_OverridesDefaults(t *testing.T) {
	doc := []byte(`
log:
  level: debug
  format: json
api:
  port: 8080
autonomy: manual
workers:
  provider: openai
  model: gpt-4o
`)

	cfg, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, models.AutonomyManual, cfg.AutonomyLevel())
	assert.Equal(t, "gpt-4o", cfg.Workers.Model)
}

func TestParse_EmptyDocumentKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 9091, cfg.API.Port)
	assert.Equal(t, models.AutonomySemiSupervised, cfg.AutonomyLevel())
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte("autonomy: yolo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = Parse([]byte("api:\n  port: 700000"))
	assert.Error(t, err)

	_, err = Parse([]byte("log:\n  level: loud"))
	assert.Error(t, err)
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("log: [unclosed"))
	assert.Error(t, err)
}

func TestParse_EnvAPIKeyOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Parse([]byte("workers:\n  api_key: from-file"))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Workers.APIKey)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := LoadOrDefault("/nonexistent/maestro.yaml")
	assert.Equal(t, 9091, cfg.API.Port)
}
