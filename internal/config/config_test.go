package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/stork-lang/stork/internal/config"
)

type options struct {
	format  string
	level   zapcore.Level
	workers int
	color   bool
	timeout time.Duration
}

func bind(t *testing.T, args ...string) (*config.Loader, *options) {
	t.Helper()
	var o options
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	l := config.NewLoader()
	require.NoError(t, l.Bind(fs,
		config.NewOpt(&o.format, "log-format", "auto", "log format"),
		config.NewOpt(&o.level, "log-level", zapcore.WarnLevel, "log level"),
		config.NewOpt(&o.workers, "workers", 4, "worker count"),
		config.NewOpt(&o.color, "color", nil, "colored diagnostics"),
		config.NewOpt(&o.timeout, "timeout", time.Second, "run timeout"),
	))
	require.NoError(t, fs.Parse(args))
	return l, &o
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stork.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	l, o := bind(t)
	require.NoError(t, l.Load())
	assert.Equal(t, options{format: "auto", level: zapcore.WarnLevel, workers: 4, timeout: time.Second}, *o)
}

func TestFlags(t *testing.T) {
	l, o := bind(t, "--log-level=debug", "--workers=2", "--color", "--timeout=5s")
	require.NoError(t, l.Load())
	assert.Equal(t, zapcore.DebugLevel, o.level)
	assert.Equal(t, 2, o.workers)
	assert.True(t, o.color)
	assert.Equal(t, 5*time.Second, o.timeout)
}

func TestPrecedence(t *testing.T) {
	t.Setenv("STORK_LOG_FORMAT", "json")
	t.Setenv("STORK_WORKERS", "8")
	path := writeFile(t, "log-format = \"console\"\nworkers = 16\nlog-level = \"error\"\n")

	l, o := bind(t, "--workers=1")
	require.NoError(t, l.ReadFile(path))
	require.NoError(t, l.Load())

	// flag beats env, env beats file, file beats default
	assert.Equal(t, 1, o.workers)
	assert.Equal(t, "json", o.format)
	assert.Equal(t, zapcore.ErrorLevel, o.level)
}

func TestBadLevel(t *testing.T) {
	t.Setenv("STORK_LOG_LEVEL", "loud")
	l, _ := bind(t)
	assert.Error(t, l.Load())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var level zapcore.Level
	config.LevelVar(fs, &level, "log-level", zapcore.InfoLevel, "")
	assert.Error(t, fs.Parse([]string{"--log-level=loud"}))
}

func TestMissingFile(t *testing.T) {
	l, _ := bind(t)
	assert.Error(t, l.ReadFile(filepath.Join(t.TempDir(), "absent.toml")))
}

func TestUnknownDestination(t *testing.T) {
	var f float64
	err := config.NewLoader().Bind(pflag.NewFlagSet("test", pflag.ContinueOnError), config.NewOpt(&f, "ratio", nil, ""))
	assert.Error(t, err)
}
