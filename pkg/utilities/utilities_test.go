package utilities

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestEffectiveLevel(t *testing.T) {
	assert.Equal(t, "info", Config{}.EffectiveLevel())
	assert.Equal(t, "debug", Config{Dev: true}.EffectiveLevel())
	assert.Equal(t, "warn", Config{Level: "warn", Dev: true}.EffectiveLevel())
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, levelFromString("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("bogus"))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bancho.log")
	lg, err := Init(Config{Level: "debug", File: path})
	require.NoError(t, err)
	lg.Info("hello")
	_ = lg.Sync()
	assert.True(t, lg.Core().Enabled(zapcore.DebugLevel))
}

func TestSnowflakeIDsAreUnique(t *testing.T) {
	g := IDGenerator{Node: 3}
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := g.Next()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSnowflakeFallsBackToKSUID(t *testing.T) {
	// node ids are 10 bits wide
	id := NewSnowflakeIDWithNode(5000)
	assert.Len(t, id, 27)
}
