package steps

import (
	"fmt"
	"sort"
)

// FeatureMatrix is the numeric form of a training dataset: one row per
// activity, standardized numeric columns followed by one-hot encoded
// categorical columns.
type FeatureMatrix struct {
	Data    [][]float64
	Columns []string
}

func (m *FeatureMatrix) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.Data)
}

var numericColumns = []string{"hour", "weekday", "is_context_switch"}

var categoricalColumns = []string{"activity_type", "app_category", "website_category", "project_context"}

// MatrixEncoder holds the fit state of one preprocessing pass: the
// per-column standardization parameters and the category vocabularies.
// It is fit per call and never reused across training runs; Transform
// tolerates categories unseen at fit time by emitting an all-zero one-hot
// block for them.
type MatrixEncoder struct {
	numMeans   []float64
	numScales  []float64
	vocabul    [][]string
	vocabIndex []map[string]int
}

func numericValues(row TrainingRow) []float64 {
	sw := 0.0
	if row.IsContextSwitch {
		sw = 1.0
	}
	return []float64{float64(row.Hour), float64(row.Weekday), sw}
}

func categoricalValues(row TrainingRow) []string {
	return []string{row.ActivityType, row.AppCategory, row.WebsiteCategory, row.ProjectContext}
}

// Fit learns means, scales and vocabularies from the rows.
func (e *MatrixEncoder) Fit(rows []TrainingRow) error {
	if len(rows) == 0 {
		return ErrDataInsufficient
	}

	e.numMeans = make([]float64, len(numericColumns))
	e.numScales = make([]float64, len(numericColumns))
	for col := range numericColumns {
		vals := make([]float64, len(rows))
		for i, row := range rows {
			vals[i] = numericValues(row)[col]
		}
		e.numMeans[col] = mean(vals)
		scale := stddev(vals)
		if scale == 0 {
			// Constant column: pass through centered at zero.
			scale = 1
		}
		e.numScales[col] = scale
	}

	e.vocabul = make([][]string, len(categoricalColumns))
	e.vocabIndex = make([]map[string]int, len(categoricalColumns))
	for col := range categoricalColumns {
		seen := map[string]bool{}
		for _, row := range rows {
			seen[categoricalValues(row)[col]] = true
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		index := make(map[string]int, len(vocab))
		for i, v := range vocab {
			index[v] = i
		}
		e.vocabul[col] = vocab
		e.vocabIndex[col] = index
	}
	return nil
}

// Transform encodes rows with the fit state. Unknown categorical values
// produce an all-zero block, never an error.
func (e *MatrixEncoder) Transform(rows []TrainingRow) (*FeatureMatrix, error) {
	if len(e.numMeans) == 0 {
		return nil, &PreprocessingError{Reason: "encoder not fit"}
	}

	columns := make([]string, 0, len(numericColumns))
	columns = append(columns, numericColumns...)
	for col, vocab := range e.vocabul {
		for _, v := range vocab {
			columns = append(columns, fmt.Sprintf("%s=%s", categoricalColumns[col], v))
		}
	}

	data := make([][]float64, 0, len(rows))
	for _, row := range rows {
		vec := make([]float64, 0, len(columns))
		nums := numericValues(row)
		for col := range numericColumns {
			vec = append(vec, (nums[col]-e.numMeans[col])/e.numScales[col])
		}
		cats := categoricalValues(row)
		for col, vocab := range e.vocabul {
			block := make([]float64, len(vocab))
			if idx, ok := e.vocabIndex[col][cats[col]]; ok {
				block[idx] = 1
			}
			vec = append(vec, block...)
		}
		data = append(data, vec)
	}
	return &FeatureMatrix{Data: data, Columns: columns}, nil
}

// BuildMatrix is the fit-then-transform pass used by training. No usable
// rows yields ErrDataInsufficient; a transform failure yields a
// PreprocessingError. Callers treat either as "cannot proceed".
func BuildMatrix(rows []TrainingRow) (*FeatureMatrix, *MatrixEncoder, error) {
	enc := &MatrixEncoder{}
	if err := enc.Fit(rows); err != nil {
		return nil, nil, err
	}
	m, err := enc.Transform(rows)
	if err != nil {
		return nil, nil, err
	}
	if len(m.Columns) == 0 {
		return nil, nil, &PreprocessingError{Reason: "no usable feature columns"}
	}
	return m, enc, nil
}
