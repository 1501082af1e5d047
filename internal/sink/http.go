// Package sink delivers conditioned datasets to their destination: a SQL
// table, the embedded store or a REST endpoint.
package sink

import (
	"context"
	"fmt"
	"slices"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Payload is the JSON body posted by the HTTP sink. Rows follow Columns.
type Payload struct {
	Table       string    `json:"table"`
	ModelKind   string    `json:"modelKind"`
	TargetField string    `json:"targetField"`
	Columns     []string  `json:"columns"`
	Rows        [][]any   `json:"rows"`
	ProcessedAt time.Time `json:"processedAt"`
}

type errorResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTP posts the conditioned table as one JSON document.
type HTTP struct {
	url  string
	rest *resty.Client
	now  func() time.Time
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	r.SetHeader("Content-Type", "application/json")
	return &HTTP{url: url, rest: r, now: time.Now}
}

func (h *HTTP) Write(ctx context.Context, table string, d *dataset.Dataset, featureNames []string, target string, kind cfg.ModelKind) error {
	records, err := dataset.Records(d, featureNames, target, kind.IsClassification())
	if err != nil {
		return err
	}

	body := Payload{
		Table:       table,
		ModelKind:   string(kind),
		TargetField: target,
		Columns:     append(slices.Clone(featureNames), target),
		Rows:        records,
		ProcessedAt: h.now().UTC(),
	}

	errBody := &errorResp{}
	resp, err := h.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetError(errBody).
		Post(h.url)
	if err != nil {
		return fmt.Errorf("post %s: %w", table, err)
	}
	if resp.IsError() {
		msg := errBody.Message
		if msg == "" {
			msg = errBody.Error
		}
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("post %s: status %d: %s", table, resp.StatusCode(), msg)
	}

	log.Info().
		Str("table", table).
		Str("url", h.url).
		Int("rows", len(records)).
		Msg("Posted processed data")
	return nil
}
