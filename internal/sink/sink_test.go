package sink

import (
	"bytes"
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/netxfw/netxlog/internal/config"
	"github.com/netxfw/netxlog/internal/event"
	"github.com/netxfw/netxlog/pkg/errors"
)

// recorder is an in-memory sink for tests.
type recorder struct {
	name     string
	mu       sync.Mutex
	got      []*event.Envelope
	sendErr  error
	closeErr error
	closed   bool
	block    chan struct{}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Send(_ context.Context, env *event.Envelope) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.got = append(r.got, env)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.closeErr
}

func (r *recorder) received() []*event.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*event.Envelope(nil), r.got...)
}

func arpEnvelope() *event.Envelope {
	return event.NewEnvelope(
		event.RawLine{Source: event.Net, ReadAt: time.Unix(1700000000, 0)},
		event.NetEvent{
			Timestamp: "12:00:00.000001",
			Length:    28,
			Payload:   event.ArpPayload{ConnectType: "Request", WhoHas: "10.0.0.1", Tell: "10.0.0.2"},
		},
	)
}

func fsEnvelope(pid int32) *event.Envelope {
	return event.NewEnvelope(
		event.RawLine{Source: event.Fs},
		event.FsEvent{
			Time:        "12:00:01.000",
			EventType:   "close",
			Duration:    0.000512,
			ProcessName: "foo",
			Pid:         pid,
			FilePaths:   []string{"/usr/bin/foo.123"},
		},
	)
}

func TestFanout_SendsToEverySink(t *testing.T) {
	a := &recorder{name: "a"}
	b := &recorder{name: "b", sendErr: stderrors.New("boom")}
	c := &recorder{name: "c"}
	f := NewFanout(zaptest.NewLogger(t).Sugar(), a, b, c)

	err := f.Send(context.Background(), arpEnvelope())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Len(t, a.received(), 1)
	assert.Len(t, c.received(), 1, "a failing sink must not stop later sinks")
	assert.Equal(t, []string{"a", "b", "c"}, f.Names())
}

func TestFanout_CloseClosesAll(t *testing.T) {
	a := &recorder{name: "a", closeErr: stderrors.New("a")}
	b := &recorder{name: "b"}
	f := NewFanout(zaptest.NewLogger(t).Sugar(), a, b)

	assert.Error(t, f.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestBuild(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	t.Run("defaults give stdout", func(t *testing.T) {
		f, err := Build(context.Background(), config.Default().Sinks, afero.NewMemMapFs(), log)
		require.NoError(t, err)
		assert.Equal(t, []string{"stdout"}, f.Names())
		assert.NoError(t, f.Close())
	})

	t.Run("nothing enabled", func(t *testing.T) {
		cfg := config.Default().Sinks
		cfg.Stdout.Enabled = false
		_, err := Build(context.Background(), cfg, afero.NewMemMapFs(), log)
		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
	})

	t.Run("bad filter", func(t *testing.T) {
		cfg := config.Default().Sinks
		cfg.Stdout.Filter = "source =="
		_, err := Build(context.Background(), cfg, afero.NewMemMapFs(), log)
		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
	})

	t.Run("file sink", func(t *testing.T) {
		cfg := config.Default().Sinks
		cfg.Stdout.Enabled = false
		cfg.File.Enabled = true
		cfg.File.Path = t.TempDir() + "/events.jsonl"
		cfg.File.Filter = `kind == "arp"`
		f, err := Build(context.Background(), cfg, afero.NewOsFs(), log)
		require.NoError(t, err)
		require.NoError(t, f.Send(context.Background(), arpEnvelope()))
		require.NoError(t, f.Send(context.Background(), fsEnvelope(1)))
		require.NoError(t, f.Close())

		data, err := afero.ReadFile(afero.NewOsFs(), cfg.File.Path)
		require.NoError(t, err)
		assert.Equal(t, 1, bytes.Count(data, []byte("\n")))
		assert.Contains(t, string(data), `"who_has":"10.0.0.1"`)
	})
}
