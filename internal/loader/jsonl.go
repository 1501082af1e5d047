package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// JSONLines reads one JSON object per line. Blank lines are skipped.
type JSONLines struct {
	path string
	kind cfg.ModelKind
}

func NewJSONLines(path string, kind cfg.ModelKind) *JSONLines {
	return &JSONLines{path: path, kind: kind}
}

func (j *JSONLines) Count(ctx context.Context, filter string) (int64, error) {
	if err := rejectFilter(filter); err != nil {
		return 0, err
	}

	var n int64
	err := j.scan(ctx, func(_ int, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

func (j *JSONLines) Load(ctx context.Context, featureColumns []string, targetColumn string, filter string) (*dataset.Dataset, error) {
	if err := rejectFilter(filter); err != nil {
		return nil, err
	}

	var rows []dataset.Row
	err := j.scan(ctx, func(line int, data []byte) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var row dataset.Row
		if err := dec.Decode(&row); err != nil {
			return fmt.Errorf("decode line %d: %w", line, err)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d, err := project(rows, featureColumns, targetColumn, j.kind)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", j.path).
		Int("rows", d.RowCount()).
		Msg("JSON data loaded successfully")
	return d, nil
}

func (j *JSONLines) scan(ctx context.Context, fn func(line int, data []byte) error) error {
	file, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(line, data); err != nil {
			return err
		}
	}
	return scanner.Err()
}

var _ Source = (*JSONLines)(nil)
