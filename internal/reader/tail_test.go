package reader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netxfw/netxlog/internal/bus"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/internal/shutdown"
)

func TestTailReader_FromStartUntilStopped(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	path := filepath.Join(t.TempDir(), "fs_usage.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644))

	coord := shutdown.New(log)
	tr := NewTailReader(event.Fs, path, PositionStart, log).WithPolling()
	require.NoError(t, tr.Start())
	coord.Register("stop tail", tr.Stop)

	b := bus.New(16)
	runOne(t, tr, b, coord)

	got := make(chan event.RawLine, 16)
	go func() {
		for line := range b.Lines() {
			got <- line
		}
		close(got)
	}()

	for _, want := range []string{"line one", "line two"} {
		select {
		case line := <-got:
			assert.Equal(t, want, line.Text)
			assert.Equal(t, event.Fs, line.Source)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	coord.Trigger("test")
	select {
	case _, ok := <-got:
		for ok {
			_, ok = <-got
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tail reader did not stop")
	}
}

func TestTailReader_RunWithoutStart(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	tr := NewTailReader(event.Sys, "/nonexistent", "", log)
	assert.Equal(t, PositionEnd, tr.position)
	assert.NoError(t, tr.Stop())

	b := bus.New(1)
	runOne(t, tr, b, shutdown.New(log))
	assert.Empty(t, collect(b))
}
