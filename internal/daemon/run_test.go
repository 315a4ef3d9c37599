package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/supervisor"
	"github.com/netxfw/netxlog/internal/utils/logger"
	"github.com/netxfw/netxlog/pkg/errors"
)

type memorySink struct {
	mu     sync.Mutex
	got    []*event.Envelope
	closed bool
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Send(_ context.Context, env *event.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = append(m.got, env)
	return nil
}

func (m *memorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

func shell(script string) func(event.Source) (supervisor.Command, bool) {
	return func(src event.Source) (supervisor.Command, bool) {
		return supervisor.Command{Source: src, Name: "/bin/sh", Args: []string{"-c", script}}, true
	}
}

func testContext(t *testing.T) context.Context {
	return logger.WithContext(context.Background(), zaptest.NewLogger(t).Sugar())
}

func TestRun_NoSources(t *testing.T) {
	_, err := Run(testContext(t), &DaemonOptions{Fs: afero.NewMemMapFs()})
	assert.ErrorIs(t, err, errors.ErrUsage)
}

func TestRun_PrivilegeRequired(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root")
	}
	cfg := config.Default()
	cfg.Sources.Network.Enabled = true

	_, err := Run(testContext(t), &DaemonOptions{Config: cfg, Fs: afero.NewMemMapFs()})
	assert.ErrorIs(t, err, errors.ErrPrivilege)
}

func TestRun_SubprocessToSink(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.System.Enabled = true
	s := &memorySink{}

	script := `for i in 1 2 3; do echo "{\"seq\":$i}"; done; echo not-json`
	stats, err := Run(testContext(t), &DaemonOptions{
		Config:     cfg,
		Fs:         afero.NewMemMapFs(),
		CommandFor: shell(script),
		Sink:       s,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, s.count())
	assert.True(t, s.closed)
	require.Contains(t, stats.Sources, event.Sys)
	assert.Equal(t, uint64(4), stats.Sources[event.Sys].Read)
	assert.Equal(t, uint64(1), stats.Sources[event.Sys].Dropped)
}

func TestRun_CancelKillsSubprocess(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.System.Enabled = true
	cfg.Collector.KillTimeout = "1s"
	s := &memorySink{}

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, &DaemonOptions{
			Config:     cfg,
			Fs:         afero.NewMemMapFs(),
			CommandFor: shell(`echo '{"up":true}'; exec sleep 60`),
			Sink:       s,
		})
		done <- err
	}()

	require.Eventually(t, func() bool { return s.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}

// TestRun_StubbornSubprocess tests that shutdown completes when the capture
// tool ignores SIGTERM and never writes
// TestRun_StubbornSubprocess 测试采集工具忽略 SIGTERM 时关闭流程仍能完成
func TestRun_StubbornSubprocess(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.System.Enabled = true
	cfg.Collector.KillTimeout = "300ms"

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, &DaemonOptions{
			Config:     cfg,
			Fs:         afero.NewMemMapFs(),
			CommandFor: shell(`trap "" TERM; exec sleep 30`),
			Sink:       &memorySink{},
		})
		done <- err
	}()

	time.Sleep(500 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon still running; SIGTERM was never escalated")
	}
}

func TestRun_SpawnFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.System.Enabled = true
	s := &memorySink{}

	_, err := Run(testContext(t), &DaemonOptions{
		Config: cfg,
		Fs:     afero.NewMemMapFs(),
		CommandFor: func(src event.Source) (supervisor.Command, bool) {
			return supervisor.Command{Source: src, Name: "/nonexistent/netxlog-capture"}, true
		},
		Sink: s,
	})
	assert.ErrorIs(t, err, errors.ErrSpawn)
	assert.True(t, s.closed)
}

func TestRun_TailedSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fs_usage.log")
	require.NoError(t, os.WriteFile(path, []byte("12:00:01.000 close 0.000512 /usr/bin/foo.123\n"), 0644))

	cfg := config.Default()
	cfg.Sources.Filesystem = config.SourceConfig{Enabled: true, Path: path, TailPosition: "start"}
	s := &memorySink{}

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, &DaemonOptions{Config: cfg, Fs: afero.NewMemMapFs(), Sink: s})
		done <- err
	}()

	require.Eventually(t, func() bool { return s.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop after cancellation")
	}
}

func TestRun_PidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.Sources.System.Enabled = true
	cfg.Collector.PidFile = "/run/netxlog.pid"

	_, err := Run(testContext(t), &DaemonOptions{
		Config:     cfg,
		Fs:         fs,
		CommandFor: shell(`true`),
		Sink:       &memorySink{},
	})
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/run/netxlog.pid")
	require.NoError(t, err)
	assert.False(t, exists, "PID file is removed on exit")
}

func TestManagePidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := zaptest.NewLogger(t).Sugar()

	require.NoError(t, managePidFile(fs, "/run/netxlog.pid"))
	data, err := afero.ReadFile(fs, "/run/netxlog.pid")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

	// stale file from a dead process is replaced
	orig := processAlive
	defer func() { processAlive = orig }()
	processAlive = func(int) bool { return false }
	require.NoError(t, afero.WriteFile(fs, "/run/netxlog.pid", []byte("999999"), 0644))
	require.NoError(t, managePidFile(fs, "/run/netxlog.pid"))

	processAlive = func(int) bool { return true }
	err = managePidFile(fs, "/run/netxlog.pid")
	assert.ErrorIs(t, err, errors.ErrAlreadyRunning)

	removePidFile(fs, "/run/netxlog.pid", log)
	removePidFile(fs, "/run/netxlog.pid", log)
}
