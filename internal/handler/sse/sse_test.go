package sse

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteEvent("view_updated", map[string]string{"id": "v1"}))
	require.NoError(t, w.WriteKeepAlive())
	require.NoError(t, w.WriteEvent("trash_updated", []string{}))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"id: 1\nevent: view_updated\ndata: {\"id\":\"v1\"}\n\n"+
			": keepalive\n\n"+
			"id: 2\nevent: trash_updated\ndata: []\n\n",
		rec.Body.String(),
	)
}

func TestWriter_RejectsMultilineEventName(t *testing.T) {
	w, err := NewWriter(httptest.NewRecorder())
	require.NoError(t, err)
	assert.Error(t, w.WriteEvent("a\nb", nil))
}

type countingWriter struct {
	calls atomic.Int32
	fail  bool
}

func (c *countingWriter) WriteKeepAlive() error {
	c.calls.Add(1)
	if c.fail {
		return errors.New("broken pipe")
	}
	return nil
}

func TestTickerKeepAlive_StopsOnStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := &countingWriter{}
	k := NewTickerKeepAlive(5 * time.Millisecond)
	stopped := k.Start(w, logger)

	require.Eventually(t, func() bool { return w.calls.Load() >= 2 }, time.Second, time.Millisecond)
	k.Stop()
	k.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive did not stop")
	}
}

func TestTickerKeepAlive_StopsOnWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := &countingWriter{fail: true}
	stopped := NewTickerKeepAlive(time.Millisecond).Start(w, logger)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keep-alive kept running after a failed write")
	}
	assert.Equal(t, int32(1), w.calls.Load())
}
