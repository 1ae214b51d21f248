package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := New("debug", format)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &SugaredLogger{SugaredLogger: zap.New(core).Sugar()}

	l.With("session_id", "abc").Infow("imported", "messages", 3)
	l.Debugw("dropped")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "imported", entry.Message)
	assert.Equal(t, map[string]interface{}{"session_id": "abc", "messages": int64(3)}, entry.ContextMap())
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Errorw("ignored", "err", "x")
	assert.NotNil(t, l.With("k", "v"))
}
