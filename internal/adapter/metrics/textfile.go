package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"logsweep/internal/domain"
)

const namespace = "logsweep"

// Textfile writes the outcome of the latest sweep in the Prometheus text
// format, for node_exporter's textfile collector. Each Record replaces the
// file atomically.
type Textfile struct {
	path string
	now  func() time.Time
}

func NewTextfile(path string) *Textfile {
	return &Textfile{path: path, now: time.Now}
}

// Record writes stats to the textfile.
func (t *Textfile) Record(stats *domain.ProcessingStats) error {
	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "files",
		Help:      "Files handled by the last sweep, by outcome.",
	}, []string{"outcome"})
	files.WithLabelValues("scanned").Set(float64(stats.FilesScanned))
	files.WithLabelValues("compressed").Set(float64(stats.FilesCompressed))
	files.WithLabelValues("skipped").Set(float64(stats.FilesSkipped))
	files.WithLabelValues("failed").Set(float64(stats.FilesFailed))

	bytesSaved := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bytes_saved",
		Help:      "Bytes reclaimed by the last sweep. Negative when artifacts grew.",
	})
	bytesSaved.Set(float64(stats.BytesSaved))

	errCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "errors",
		Help:      "Errors recorded by the last sweep.",
	})
	errCount.Set(float64(len(stats.Errors)))

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last sweep finished.",
	})
	lastRun.Set(float64(t.now().Unix()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(files, bytesSaved, errCount, lastRun)

	if err := prometheus.WriteToTextfile(t.path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
