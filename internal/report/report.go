// Package report reads a run's metric log back and renders it for
// human inspection: terminal line charts of the aggregated metrics and
// PNG grids of image batches.
package report

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/afero"
)

// Row is one record of the metric log.
type Row struct {
	RunID  string
	Epoch  int
	Step   int
	Metric string
	Value  float64
}

// Load parses a metrics.csv file.
func Load(fs afero.Fs, path string) ([]Row, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metric log: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse metric log: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metric log %s is empty", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, fmt.Errorf("row %d: want 5 fields, got %d", i+1, len(rec))
		}
		epoch, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: epoch: %w", i+1, err)
		}
		step, err := strconv.Atoi(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: step: %w", i+1, err)
		}
		value, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: value: %w", i+1, err)
		}
		rows = append(rows, Row{RunID: rec[0], Epoch: epoch, Step: step, Metric: rec[3], Value: value})
	}
	return rows, nil
}

// EpochSeries holds per-epoch means for each metric, epoch-aligned.
type EpochSeries struct {
	Epochs  []int
	Metrics map[string][]float64
}

// AggregateByEpoch groups rows by epoch and means each metric within
// the group.
func AggregateByEpoch(rows []Row) EpochSeries {
	type acc struct {
		sum   float64
		count int
	}
	byEpoch := map[int]map[string]*acc{}
	for _, r := range rows {
		m := byEpoch[r.Epoch]
		if m == nil {
			m = map[string]*acc{}
			byEpoch[r.Epoch] = m
		}
		a := m[r.Metric]
		if a == nil {
			a = &acc{}
			m[r.Metric] = a
		}
		a.sum += r.Value
		a.count++
	}

	epochs := make([]int, 0, len(byEpoch))
	for e := range byEpoch {
		epochs = append(epochs, e)
	}
	sort.Ints(epochs)

	out := EpochSeries{Epochs: epochs, Metrics: map[string][]float64{}}
	for _, e := range epochs {
		for name, a := range byEpoch[e] {
			out.Metrics[name] = append(out.Metrics[name], a.sum/float64(a.count))
		}
	}
	return out
}

// Series returns the per-epoch means for one metric, nil if absent.
func (e EpochSeries) Series(name string) []float64 {
	return e.Metrics[name]
}
