package dataset

import (
	"math"
	"strconv"
)

// Records returns d as rows of values ordered as featureNames followed by
// target. Features are rounded to their float32 precision. The target is
// an int64 when integerTarget is set, otherwise a float64.
func Records(d *Dataset, featureNames []string, target string, integerTarget bool) ([][]any, error) {
	columns, err := d.Columns64(append(append([]string{}, featureNames...), target))
	if err != nil {
		return nil, err
	}

	labels := columns[len(columns)-1]
	records := make([][]any, d.RowCount())
	for i := range records {
		record := make([]any, len(columns))
		for j := range featureNames {
			record[j] = Single(columns[j][i])
		}
		if integerTarget {
			record[len(featureNames)] = int64(math.Round(labels[i]))
		} else {
			record[len(featureNames)] = labels[i]
		}
		records[i] = record
	}
	return records, nil
}

// Single returns the float64 with the shortest decimal form of v's float32
// value, so 0.1 stored as float32 reads back as 0.1.
func Single(v float64) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', -1, 32), 64)
	if err != nil {
		return v
	}
	return f
}
