package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestInitReplacesGlobals(t *testing.T) {
	before := zap.L()
	closeFn, err := Init("debug")
	require.NoError(t, err)
	assert.NotSame(t, before, zap.L())
	assert.True(t, zap.L().Core().Enabled(zapcore.DebugLevel))

	closeFn()
	assert.Same(t, before, zap.L())
}

func TestMaskShort(t *testing.T) {
	assert.Equal(t, "", MaskShort("  "))
	assert.Equal(t, "short", MaskShort("short"))
	assert.Equal(t, "9xQe***jKmn", MaskShort("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusjKmn"))
}
