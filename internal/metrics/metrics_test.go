package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveSuccess(90*time.Second, 24.5)
	m.ObserveSuccess(10*time.Second, 0)
	m.ObserveFailure("encoder")
	m.ObserveInvalid()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EncodesTotal.WithLabelValues(ResultInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailuresTotal.WithLabelValues("encoder")))

	n, err := testutil.GatherAndCount(m.Registry(), "vidconv_encode_fps")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSuccess(time.Second, 30)
		m.ObserveFailure("input")
		m.ObserveInvalid()
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveFailure("mux_queue")

	path := filepath.Join(t.TempDir(), "vidconv.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, `vidconv_ffmpeg_failures_total{reason="mux_queue"} 1`), out)
	assert.True(t, strings.Contains(out, `vidconv_encodes_total{result="failed"} 1`), out)
}
