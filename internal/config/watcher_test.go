package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "reminders:\n  burnout_check: 20m\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c }, zap.NewNop())
	require.NoError(t, err)
	w.Start(context.Background())
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(path, []byte("reminders:\n  burnout_check: 15m\n"), 0600))

	// A write may surface as a truncate then a write; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Reminders.BurnoutCheck == 15*time.Minute {
				return
			}
		case <-deadline:
			t.Fatal("expected a reload after writing the config file")
		}
	}
}

func TestWatcher_InvalidChangeIsLoggedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  format: console\n")

	core, logs := observer.New(zapcore.WarnLevel)
	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c }, zap.New(core))
	require.NoError(t, err)
	w.Start(context.Background())
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: xml\n"), 0600))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("ignoring invalid config change").Len() > 0
	}, 5*time.Second, 20*time.Millisecond)
	for len(changes) > 0 {
		cfg := <-changes
		assert.Equal(t, "console", cfg.Log.Format)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	w, err := NewWatcher(path, nil, nil)
	require.NoError(t, err)

	w.Stop()
	w.Stop()

	started, err := NewWatcher(path, nil, nil)
	require.NoError(t, err)
	started.Start(context.Background())
	started.Stop()
	started.Stop()
}
