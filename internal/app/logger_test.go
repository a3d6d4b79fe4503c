package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logOneRecord(t *testing.T, cfg *Config) []byte {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, cfg))
	logger.Log(context.Background(), slog.LevelInfo, "server started")
	return buf.Bytes()
}

func TestLoggerEmitsJSONInProduction(t *testing.T) {
	out := logOneRecord(t, &Config{AppEnv: "production", LogFormat: "pretty"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(out, &record))
	assert.Equal(t, "server started", record["msg"])
}

func TestLoggerHonorsJSONFormatOutsideProduction(t *testing.T) {
	out := logOneRecord(t, &Config{AppEnv: "development", LogFormat: "json"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(out, &record))
	assert.Equal(t, "server started", record["msg"])
}

func TestLoggerDefaultsToTextInDevelopment(t *testing.T) {
	out := logOneRecord(t, &Config{AppEnv: "development", LogFormat: "pretty"})

	assert.Error(t, json.Unmarshal(out, &map[string]any{}))
	assert.Contains(t, string(out), "server started")
}
