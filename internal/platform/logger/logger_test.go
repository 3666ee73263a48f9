package logger

import (
	"errors"
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
		"":        Info,
		"INFO":    Info,
		"warning": Warn,
		"error":   Error,
		"bogus":   Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat(" json "))
	assert.Equal(t, FormatText, ParseFormat("xml"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With(map[string]any{"saga_id": "s1"})

	l.Warn("paso fallido", map[string]any{
		"step": "create_birth",
		"err":  errors.New("boom"),
		"":     "ignorado",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "s1", ctx["saga_id"])
	assert.Equal(t, "create_birth", ctx["step"])
	assert.Equal(t, "boom", ctx["err"])
	assert.NotContains(t, ctx, "")
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Info("x", nil)
	assert.Same(t, l, l.With(nil))
}
