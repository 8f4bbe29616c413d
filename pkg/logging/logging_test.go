package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/logging"
	"github.com/nauanbek/saqshy/pkg/types"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("anything-else"))
}

func TestConfigure_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logging.Configure(slog.LevelInfo, "json", &buf)
	defer logging.Configure(slog.LevelInfo, "text", nil)

	slog.Info("verdict computed", "verdict", "allow")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "verdict computed", record["msg"])
	assert.Equal(t, "allow", record["verdict"])
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logging.Configure(slog.LevelWarn, "text", &buf)
	defer logging.Configure(slog.LevelInfo, "text", nil)

	slog.Debug("hidden")
	slog.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestMessageAttrs_CarriesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	logging.Configure(slog.LevelInfo, "json", &buf)
	defer logging.Configure(slog.LevelInfo, "text", nil)

	msg := types.MessageContext{ChatID: 7, UserID: 11, MessageID: 13, GroupType: types.GroupCrypto}
	slog.Info("processing", logging.MessageAttrs(msg)...)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.EqualValues(t, 7, record["chat_id"])
	assert.EqualValues(t, 11, record["user_id"])
	assert.Equal(t, "crypto", record["group_type"])
}
