package log

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/tilestore/errors"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	level := log.GetLevel()
	formatter := log.StandardLogger().Formatter
	t.Cleanup(func() {
		log.SetLevel(level)
		log.SetFormatter(formatter)
		log.SetOutput(os.Stderr)
	})
}

func TestConfigureLevelAndFormat(t *testing.T) {
	restoreLogger(t)
	cfg := &Config{Format: "json", Level: "debug", File: "-"}
	require.NoError(t, cfg.Configure())
	require.Equal(t, log.DebugLevel, log.GetLevel())
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	require.True(t, ok)
}

func TestConfigureFile(t *testing.T) {
	restoreLogger(t)
	dir, err := ioutil.TempDir("", "tilestore-log")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, os.RemoveAll(dir))
	}()
	file := filepath.Join(dir, "out.log")
	cfg := &Config{Format: "text", Level: "info", File: file}
	require.NoError(t, cfg.Configure())
	log.Info("hello tiles")
	content, err := ioutil.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(content), "hello tiles")
}

func TestConfigureInvalid(t *testing.T) {
	restoreLogger(t)
	err := (&Config{Format: "xml"}).Configure()
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
	err = (&Config{Level: "loud"}).Configure()
	require.True(t, errors.HasCode(err, errors.InvalidConfiguration))
}
