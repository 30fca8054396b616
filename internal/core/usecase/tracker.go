package usecase

import (
	"math"
	"sync"
	"time"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// qualityWindow is how many recent searches feed the rolling quality average.
const qualityWindow = 100

// PerformanceTracker accumulates per-search timing and quality samples and
// serves them back as aggregate stats. Safe for concurrent use.
type PerformanceTracker struct {
	mu            sync.Mutex
	searchCount   int64
	totalDuration time.Duration
	cacheHits     int64
	quality       []float64
	qualityNext   int
	qualityFull   bool
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{quality: make([]float64, qualityWindow)}
}

func (t *PerformanceTracker) Record(duration time.Duration, quality float64, cacheHit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.searchCount++
	t.totalDuration += duration
	if cacheHit {
		t.cacheHits++
	}

	t.quality[t.qualityNext] = quality
	t.qualityNext++
	if t.qualityNext == len(t.quality) {
		t.qualityNext = 0
		t.qualityFull = true
	}
}

func (t *PerformanceTracker) Stats(cacheSize int) domain.PerformanceStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := domain.PerformanceStats{
		SearchCount: t.searchCount,
		CacheSize:   cacheSize,
	}
	if t.searchCount > 0 {
		stats.AvgResponseTimeMs = round2(float64(t.totalDuration.Milliseconds()) / float64(t.searchCount))
		stats.CacheHitRatio = round2(float64(t.cacheHits) / float64(t.searchCount))
	}

	samples := t.qualityNext
	if t.qualityFull {
		samples = len(t.quality)
	}
	if samples > 0 {
		sum := 0.0
		for _, q := range t.quality[:samples] {
			sum += q
		}
		stats.AvgSearchQuality = round2(sum / float64(samples))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
