package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_LevelFallback(t *testing.T) {
	l, err := Init(Config{Level: "nonsense"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l, err = Init(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ladder.log")
	l, err := Init(Config{Level: "info", OutputFile: path, JSON: true})
	require.NoError(t, err)

	Component(l, "TEST").Info("ladder built")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"component":"TEST"`)
	assert.Contains(t, string(raw), "ladder built")
}
