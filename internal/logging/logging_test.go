package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		" WARN ":  Warn,
		"warning": Warn,
		"error":   Error,
		"":        Info,
		"bogus":   Info,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseLevel(raw), "raw=%q", raw)
	}
}

func TestNewWritesAboveLevelOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Warn)

	logger.Info("hidden")
	logger.Warn("shown", F("tab", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"tab": 3`)
	assert.False(t, logger.Enabled(Debug))
	assert.True(t, logger.Enabled(Error))
}

func TestFromZapCarriesFieldsAndErrors(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).Named("collapse").With(F("window", 1))

	logger.Debug("settled", F("err", errors.New("boom")))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "collapse", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 1, ctx["window"])
	assert.True(t, strings.Contains(ctx["err"].(string), "boom"))
}

func TestNopIsSilent(t *testing.T) {
	logger := Nop()
	logger.Error("nothing")
	assert.False(t, logger.Enabled(Error))
	assert.NoError(t, logger.Sync())
}
