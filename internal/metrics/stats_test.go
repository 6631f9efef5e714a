package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStatsSnapshotPercentiles(t *testing.T) {
	stats := NewRenderStats(time.Hour)
	for _, ms := range []int64{500, 100, 400, 200, 300} {
		stats.Record(ms)
	}

	snap := stats.Snapshot()
	require.Equal(t, 5, snap.Count)
	assert.EqualValues(t, 100, snap.MinMs)
	assert.EqualValues(t, 500, snap.MaxMs)
	assert.InDelta(t, 300, snap.AvgMs, 1e-9)
	assert.InDelta(t, 300, snap.P50Ms, 1e-9)
	assert.InDelta(t, 480, snap.P95Ms, 1e-9)
	assert.InDelta(t, 496, snap.P99Ms, 1e-9)
}

func TestRenderStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewRenderStats(10 * time.Millisecond)
	stats.Record(100)
	time.Sleep(25 * time.Millisecond)

	assert.Zero(t, stats.Snapshot().Count, "expired sample should be pruned")

	stats.Record(200)
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.EqualValues(t, 200, snap.MinMs)
	assert.EqualValues(t, 200, snap.MaxMs)
}

func TestRenderStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewRenderStats(time.Hour)
	stats.Record(-10)

	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Count)
	assert.Zero(t, snap.MinMs)
	assert.Zero(t, snap.MaxMs)
}

func TestRenderStatsEmpty(t *testing.T) {
	assert.Equal(t, StatsSnapshot{}, NewRenderStats(0).Snapshot())
}
