package metrics

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// MetricsFile is the name of the per-run metric log.
const MetricsFile = "metrics.csv"

var header = []string{"run_id", "epoch", "step", "metric", "value"}

// Recorder appends named scalar metrics to a per-run CSV file under
// <logDir>/<name>/<runID>/metrics.csv. Rows are append-only; nothing is
// rewritten after being logged.
type Recorder struct {
	fs    afero.Fs
	file  afero.File
	w     *csv.Writer
	runID string
	dir   string
}

// NewRecorder creates the run directory and the metric file with its
// header row. The run id is a fresh UUID.
func NewRecorder(fs afero.Fs, logDir, name string) (*Recorder, error) {
	runID := uuid.NewString()
	dir := filepath.Join(logDir, name, runID)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	f, err := fs.Create(filepath.Join(dir, MetricsFile))
	if err != nil {
		return nil, fmt.Errorf("create metric log: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Recorder{fs: fs, file: f, w: w, runID: runID, dir: dir}, nil
}

// RunID returns the run's unique id.
func (r *Recorder) RunID() string { return r.runID }

// Dir returns the run directory holding the metric file.
func (r *Recorder) Dir() string { return r.dir }

// Log appends one metric row.
func (r *Recorder) Log(epoch, step int, metric string, value float64) error {
	row := []string{
		r.runID,
		strconv.Itoa(epoch),
		strconv.Itoa(step),
		metric,
		strconv.FormatFloat(value, 'g', -1, 64),
	}
	if err := r.w.Write(row); err != nil {
		return fmt.Errorf("log %s: %w", metric, err)
	}
	return nil
}

// Flush forces buffered rows to the file.
func (r *Recorder) Flush() error {
	r.w.Flush()
	return r.w.Error()
}

// Close flushes and closes the metric file.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
