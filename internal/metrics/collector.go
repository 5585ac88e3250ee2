package metrics

import (
	"os"
	"time"

	"webm-trimmer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	TotalSubmissions  int
	DoneSubmissions   int
	FailedSubmissions int
	ActiveSessions    int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty, in which
// case database file sizes are not reported.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSizes()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	SubmissionHistory.WithLabelValues("done").Set(float64(stats.DoneSubmissions))
	SubmissionHistory.WithLabelValues("failed").Set(float64(stats.FailedSubmissions))
	ActiveSessions.Set(float64(stats.ActiveSessions))

	logging.Debug("Metrics collected: submissions=%d (done=%d, failed=%d), sessions=%d",
		stats.TotalSubmissions, stats.DoneSubmissions, stats.FailedSubmissions, stats.ActiveSessions)
}

func (c *Collector) collectDBSizes() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
