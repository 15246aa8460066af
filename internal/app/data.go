package app

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/archon-ml/archon/internal/config"
	"github.com/archon-ml/archon/internal/tensor"
)

// loadCSV reads a file of numeric rows. Every record must have the same
// width; the column structure becomes the example's feature vector.
func loadCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rows := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: record %d field %d is not numeric: %w", path, i+1, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// resolveBinding turns one data binding into a series. CSV paths are
// resolved relative to the experiment file's directory.
func resolveBinding(baseDir, csvPath string, values [][]float64) (tensor.Series, error) {
	rows := values
	if csvPath != "" {
		path := csvPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		var err error
		rows, err = loadCSV(path)
		if err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("data binding is empty")
	}
	return tensor.FromMatrix(rows), nil
}

// bindData resolves every input and output binding of an experiment into
// per-slot series, in declared order.
func bindData(exp *config.Experiment, baseDir string) (x, y []tensor.Series, err error) {
	for _, in := range exp.Inputs {
		series, err := resolveBinding(baseDir, in.CSVPath, in.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("input '%s': %w", in.Name, err)
		}
		x = append(x, series)
	}
	for _, out := range exp.Outputs {
		series, err := resolveBinding(baseDir, out.CSVPath, out.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("output '%s': %w", out.Name, err)
		}
		y = append(y, series)
	}
	return x, y, nil
}
