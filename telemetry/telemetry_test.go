package telemetry

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNOP(t *testing.T) {
	var l Logger = NOPLogger{}
	l.Info("hello", "k", 1)
	l.Error("boom", errors.New("x"))

	var m Metrics = NOPMetrics{}
	m.SetCount("c", 1)
	m.SetGauge("g", 1.5)
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core))

	l.Debug("query", "tier", "required")
	l.Error("load failed", errors.New("disk gone"), "day", "2026-10-17")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "query", entries[0].Message)
	require.Equal(t, "required", entries[0].ContextMap()["tier"])
	require.Equal(t, "disk gone", entries[1].ContextMap()["error"])
}

func TestNewZapLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewZapLogger("loud")
	require.Error(t, err)

	l, err := NewZapLogger("info")
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "freetime")

	m.SetCount("queries", 3)
	m.SetCount("queries", 4)
	m.SetGauge("last_slots", 2)

	g := m.(*promMetrics).gauges["queries"]
	require.Equal(t, 4.0, testutil.ToFloat64(g))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// a second adapter on the same registry reuses the existing collector
	m2 := NewPrometheusMetrics(reg, "freetime")
	m2.SetCount("queries", 9)
	require.Equal(t, 9.0, testutil.ToFloat64(g))
}
