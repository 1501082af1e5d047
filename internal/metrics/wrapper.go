package metrics

// Wrapper adapts Metrics to the method set the pipeline records through.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) RunsInc() {
	w.m.RunsTotal.Inc()
}

func (w *Wrapper) RunFailuresInc() {
	w.m.RunFailures.Inc()
}

func (w *Wrapper) RunDurationObserve(seconds float64) {
	w.m.RunDuration.Observe(seconds)
}

func (w *Wrapper) StageDurationObserve(stage string, seconds float64) {
	w.m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RowsObserve records one run's input and output row counts.
func (w *Wrapper) RowsObserve(input, output int) {
	w.m.InputRows.Add(float64(input))
	w.m.OutputRows.Add(float64(output))
}

func (w *Wrapper) SyntheticRowsAdd(n int) {
	if n > 0 {
		w.m.SyntheticRows.Add(float64(n))
	}
}

func (w *Wrapper) SelectedFeaturesSet(n int) {
	w.m.SelectedFeatures.Set(float64(n))
}

func (w *Wrapper) SinkWritesInc() {
	w.m.SinkWrites.Inc()
}

func (w *Wrapper) SinkFailuresInc() {
	w.m.SinkFailures.Inc()
}
