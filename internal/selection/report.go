package selection

import (
	"fmt"
	"strings"
)

// report accumulates one selection call's text. A fresh report is created
// per call, so selectors hold no shared buffers.
type report struct {
	b strings.Builder
}

func newReport(method string) *report {
	r := &report{}
	r.line("")
	r.line("%s Feature Selection Results:", method)
	r.line("----------------------------------------------")
	return r
}

func (r *report) line(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
	r.b.WriteByte('\n')
}

func (r *report) summary(original int, selected []string) {
	r.line("")
	r.line("Selection Summary:")
	r.line("Original features: %d", original)
	r.line("Selected features: %d", len(selected))
}

func (r *report) String() string {
	return r.b.String()
}
