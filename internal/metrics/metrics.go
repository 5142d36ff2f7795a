package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector in this package
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Scan metrics
var (
	ScanFilesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_scan_files_total",
			Help: "Files visited during scans by outcome",
		},
		[]string{"outcome"}, // "recorded", "ignored", "failed"
	)

	ScanErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_scan_errors_total",
			Help: "Per-file scan errors by kind",
		},
		[]string{"kind"},
	)

	ScanDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroarch_playlist_scan_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
	)

	ScanLastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroarch_playlist_scan_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanWorkers = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroarch_playlist_scan_workers",
			Help: "Number of checksum workers used by the last scan",
		},
	)
)

// Checksum metrics
var (
	ChecksumDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retroarch_playlist_checksum_duration_seconds",
			Help:    "Time spent computing CRC32 checksums",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"}, // "file", "zip"
	)

	ChecksumBytesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_checksum_bytes_total",
			Help: "Bytes read while computing checksums",
		},
		[]string{"source"},
	)

	ChecksumCacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_checksum_cache_hits_total",
			Help: "Checksums served from the cache",
		},
	)

	ChecksumCacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_checksum_cache_misses_total",
			Help: "Checksums that had to be computed",
		},
	)
)

// Playlist metrics
var (
	PlaylistItems = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "retroarch_playlist_items",
			Help: "Number of items in the last written playlist",
		},
	)

	PlaylistWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retroarch_playlist_writes_total",
			Help: "Playlist write attempts by status",
		},
		[]string{"status"}, // "success", "error"
	)
)

// InitializeMetrics pre-populates label combinations so every series is
// present in the first dump
func InitializeMetrics() {
	for _, outcome := range []string{"recorded", "ignored", "failed"} {
		ScanFilesTotal.WithLabelValues(outcome)
	}
	for _, kind := range []string{"PathNotFound", "NotReadable", "ArchiveCorrupt", "Other"} {
		ScanErrorsTotal.WithLabelValues(kind)
	}
	for _, source := range []string{"file", "zip"} {
		ChecksumDuration.WithLabelValues(source)
		ChecksumBytesTotal.WithLabelValues(source)
	}
	for _, status := range []string{"success", "error"} {
		PlaylistWritesTotal.WithLabelValues(status)
	}
}

// ObserveScan records the summary of a finished scan
func ObserveScan(duration time.Duration, workers int) {
	ScanDuration.Set(duration.Seconds())
	ScanWorkers.Set(float64(workers))
	ScanLastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes the registry to path in the Prometheus text format
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
