package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(false, &buf)

	log.Debug().Msg("hidden")
	log.Info().Str("book", "Dune").Msg("borrowed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Dune", line["book"])
	assert.Equal(t, "borrowed", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewDebugConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(true, &buf)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
