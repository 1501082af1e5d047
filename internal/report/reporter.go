// Package report writes the outcome of a conditioning run to files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"iris-ml/internal/dataset"
	"iris-ml/internal/pipeline"

	"github.com/rs/zerolog/log"
)

// Output file names
const (
	SummaryFile      = "conditioning_summary.txt"
	JSONFile         = "conditioning_results.json"
	DataFile         = "conditioned_data.csv"
	DistributionFile = "label_distribution.csv"
)

// Reporter generates run reports
type Reporter struct {
	result     *pipeline.ProcessedDataset
	outputPath string
	now        func() time.Time
}

// NewReporter creates a new reporter
func NewReporter(result *pipeline.ProcessedDataset, outputPath string) *Reporter {
	return &Reporter{
		result:     result,
		outputPath: outputPath,
		now:        time.Now,
	}
}

// GenerateReport generates all report formats. The label distribution is
// only written for classification runs.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}

	if err := r.generateData(); err != nil {
		return err
	}

	if err := r.generateJSONReport(); err != nil {
		return err
	}

	if r.result.ModelKind().IsClassification() {
		if err := r.generateDistribution(); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	res := r.result

	fmt.Fprintf(w, "CONDITIONING RUN SUMMARY\n")
	fmt.Fprintf(w, "========================\n\n")
	fmt.Fprintf(w, "Run ID: %s\n", res.RunID())
	fmt.Fprintf(w, "Created: %s\n", res.CreatedAt().Format("2006-01-02 15:04:05"))
	if res.ModelKind() != "" {
		fmt.Fprintf(w, "Model Kind: %s\n", res.ModelKind())
	}
	fmt.Fprintf(w, "Target Field: %s\n\n", res.TargetField())

	fmt.Fprintf(w, "ROWS\n")
	fmt.Fprintf(w, "----\n")
	fmt.Fprintf(w, "Original: %d\n", res.OriginalRowCount())
	fmt.Fprintf(w, "Final: %d\n", res.BalancedRowCount())
	fmt.Fprintf(w, "Synthetic: %d\n\n", res.SyntheticRowCount())

	fmt.Fprintf(w, "STAGES\n")
	fmt.Fprintf(w, "------\n")
	fmt.Fprintf(w, "Balancing: %s (order %d)\n", res.BalancingMethod(), res.BalancingExecutionOrder())
	fmt.Fprintf(w, "Selection: %s (order %d)\n", res.SelectionMethod(), res.SelectionExecutionOrder())
	if res.BalancingFirst() {
		fmt.Fprintf(w, "Processing order: Balancing -> Feature Selection\n")
	} else {
		fmt.Fprintf(w, "Processing order: Feature Selection -> Balancing\n")
	}

	if res.OutputTable() != "" {
		fmt.Fprintf(w, "\nOUTPUT\n")
		fmt.Fprintf(w, "------\n")
		fmt.Fprintf(w, "Table: %s\n", res.OutputTable())
		if err := res.SinkError(); err != nil {
			fmt.Fprintf(w, "Sink error: %v\n", err)
		}
	}

	fmt.Fprintf(w, "\nFEATURES (%d)\n", len(res.FeatureNames()))
	fmt.Fprintf(w, "------------\n")
	for _, name := range res.FeatureNames() {
		fmt.Fprintf(w, "%s\n", name)
	}

	if report := strings.TrimSpace(res.SelectionReport()); report != "" {
		fmt.Fprintf(w, "\n%s\n", report)
	}
}

// generateData writes the conditioned table: features in final order, then
// the target.
func (r *Reporter) generateData() error {
	records, err := dataset.Records(r.result.Data(), r.result.FeatureNames(), r.result.TargetField(),
		r.result.ModelKind().IsClassification())
	if err != nil {
		return err
	}

	csvPath := filepath.Join(r.outputPath, DataFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create data file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := append(r.result.FeatureNames(), r.result.TargetField())
	if err := writer.Write(header); err != nil {
		return err
	}

	line := make([]string, len(header))
	for _, record := range records {
		for i, v := range record {
			line[i] = formatValue(v)
		}
		if err := writer.Write(line); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	log.Info().Str("file", csvPath).Int("rows", len(records)).Msg("Conditioned data written")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, JSONFile)

	report := map[string]any{
		"summary":      r.result.Summary(),
		"generated_at": r.now().UTC(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// LabelCount is the number of rows carrying one class label.
type LabelCount struct {
	Label int64
	Count int
	Share float64
}

// Distribution counts rows per class label, in ascending label order.
func Distribution(d *dataset.Dataset, target string) ([]LabelCount, error) {
	labels, err := d.Float64s(target)
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int)
	for _, l := range labels {
		counts[int64(l)]++
	}

	keys := make([]int64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]LabelCount, len(keys))
	for i, k := range keys {
		out[i] = LabelCount{Label: k, Count: counts[k], Share: float64(counts[k]) / float64(len(labels))}
	}
	return out, nil
}

func (r *Reporter) generateDistribution() error {
	dist, err := Distribution(r.result.Data(), r.result.TargetField())
	if err != nil {
		return err
	}

	csvPath := filepath.Join(r.outputPath, DistributionFile)
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create distribution file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Label", "Count", "Share %"}); err != nil {
		return err
	}
	for _, lc := range dist {
		record := []string{
			strconv.FormatInt(lc.Label, 10),
			strconv.Itoa(lc.Count),
			fmt.Sprintf("%.2f", lc.Share*100),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Label distribution generated")
	return nil
}

// PrintSummary prints a summary to w
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.result
	fmt.Fprintln(w, "\n=== CONDITIONING RESULTS ===")
	fmt.Fprintf(w, "Run ID: %s\n", res.RunID())
	fmt.Fprintf(w, "Rows: %d -> %d (%d synthetic)\n", res.OriginalRowCount(), res.BalancedRowCount(), res.SyntheticRowCount())
	fmt.Fprintf(w, "Balancing: %s\n", res.BalancingMethod())
	fmt.Fprintf(w, "Selection: %s\n", res.SelectionMethod())
	fmt.Fprintf(w, "Features: %s\n", strings.Join(res.FeatureNames(), ", "))
	if err := res.SinkError(); err != nil {
		fmt.Fprintf(w, "Sink error: %v\n", err)
	}
	fmt.Fprintln(w, "============================")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
