package sink

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/netxfw/netxlog/internal/metrics"
	"github.com/netxfw/netxlog/pkg/errors"
)

func TestAsync_PreservesOrder(t *testing.T) {
	rec := &recorder{name: "ordered"}
	a := NewAsync(rec, 4, time.Second, zaptest.NewLogger(t).Sugar())

	for i := int32(1); i <= 50; i++ {
		require.NoError(t, a.Send(context.Background(), fsEnvelope(i)))
	}
	require.NoError(t, a.Close())

	got := rec.received()
	require.Len(t, got, 50)
	for i, env := range got {
		assert.Equal(t, int(i+1), env.Fields()["pid"])
	}
	assert.True(t, rec.closed)
}

func TestAsync_DropsOnTimeout(t *testing.T) {
	rec := &recorder{name: "slow-sink", block: make(chan struct{})}
	a := NewAsync(rec, 1, 20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	before := testutil.ToFloat64(metrics.SinkDropped.WithLabelValues("slow-sink"))

	// first envelope is taken by the worker and blocks it, second fills the buffer
	require.NoError(t, a.Send(context.Background(), fsEnvelope(1)))
	require.Eventually(t, func() bool { return len(a.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, a.Send(context.Background(), fsEnvelope(2)))

	err := a.Send(context.Background(), fsEnvelope(3))
	assert.ErrorIs(t, err, errors.ErrSinkTimeout)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SinkDropped.WithLabelValues("slow-sink")))

	close(rec.block)
	require.NoError(t, a.Close())
	assert.Len(t, rec.received(), 2)
}

func TestAsync_SendAfterClose(t *testing.T) {
	a := NewAsync(&recorder{name: "closed"}, 1, time.Second, zaptest.NewLogger(t).Sugar())
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	assert.ErrorIs(t, a.Send(context.Background(), arpEnvelope()), errors.ErrSinkClosed)
}
