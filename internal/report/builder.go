// Package report assembles the final report and renders it.
package report

import (
	"errors"
	"time"

	"github.com/sprite-ai/diffgate/internal/analysis"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// Tool is the name recorded in every report.
const Tool = "diffgate"

// ErrAlreadyFinalized is returned by a second call to Finalize.
var ErrAlreadyFinalized = errors.New("report already finalized")

// Builder fills in a report during a run and seals it exactly once.
type Builder struct {
	report    model.Report
	finalized bool

	// Now stamps the report; defaults to time.Now.
	Now func() time.Time
}

// NewBuilder starts a report carrying the run's metadata.
func NewBuilder(meta model.Report) *Builder {
	meta.Tool = Tool
	meta.Findings = model.Findings{}
	meta.Summary = model.Summary{}
	return &Builder{report: meta, Now: time.Now}
}

// SetChanges records change-set statistics.
func (b *Builder) SetChanges(stats model.ChangeStats) {
	b.report.Changes = stats
}

// SetBaseRef records the reference the change set was computed against.
func (b *Builder) SetBaseRef(ref string) {
	b.report.BaseRef = ref
}

// Finalize copies the findings, computes the verdict and returns the
// finished report.
func (b *Builder) Finalize(res *analysis.Results, settings rules.Settings) (*model.Report, error) {
	if b.finalized {
		return nil, ErrAlreadyFinalized
	}
	b.finalized = true

	r := b.report
	r.Timestamp = b.Now().UTC().Format(time.RFC3339)
	f := res.Findings()
	r.Findings = model.Findings{
		Errors:   nonNil(f.Errors),
		Warnings: nonNil(f.Warnings),
		Info:     nonNil(f.Info),
	}
	r.Summary = res.Summary(settings)
	return &r, nil
}

func nonNil(fs []model.Finding) []model.Finding {
	if fs == nil {
		return []model.Finding{}
	}
	return append([]model.Finding(nil), fs...)
}
