package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerJSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := InitLogger(LoggerConfig{Format: "json", Output: &buf})

	log.With("component", "auth").Info("login", "email", "a@b.c", "password", "hunter2", "auth_token", "abc")
	log.Sync()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "login", entry["msg"])
	assert.Equal(t, "auth", entry["component"])
	assert.Equal(t, "a@b.c", entry["email"])
	assert.Equal(t, "[REDACTED]", entry["password"])
	assert.Equal(t, "[REDACTED]", entry["auth_token"])
}

func TestLoggerDebugFilteredAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	log := InitLogger(LoggerConfig{Format: "json", Output: &buf})
	log.Debug("hidden")
	assert.Empty(t, buf.String())
}
