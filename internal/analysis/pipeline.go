// Package analysis wires extraction, budgeting and offer evaluation into
// the two runs the CLI exposes.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vindicatenyc/vindicate-app/internal/audit"
	"github.com/vindicatenyc/vindicate-app/internal/budget"
	"github.com/vindicatenyc/vindicate-app/internal/calc"
	"github.com/vindicatenyc/vindicate-app/internal/chart"
	"github.com/vindicatenyc/vindicate-app/internal/classify"
	"github.com/vindicatenyc/vindicate-app/internal/config"
	"github.com/vindicatenyc/vindicate-app/internal/extract"
	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/id"
	"github.com/vindicatenyc/vindicate-app/internal/ledger"
	"github.com/vindicatenyc/vindicate-app/internal/logger"
	"github.com/vindicatenyc/vindicate-app/internal/metrics"
	"github.com/vindicatenyc/vindicate-app/internal/model"
	"github.com/vindicatenyc/vindicate-app/internal/standards"
)

// Audit codes raised by the pipeline.
const (
	CodeDuplicate          = "DUPLICATE_TRANSACTION"
	CodeInvalidTransaction = "INVALID_TRANSACTION"
)

// Options tune a Pipeline.
type Options struct {
	Dedupe             bool
	TopCategories      int
	CNCEquityExemption decimal.Decimal
}

// Pipeline runs budget and offer analyses. It is safe for concurrent use.
type Pipeline struct {
	extractor *extract.Extractor
	table     *standards.Table
	chart     *chart.Chart
	opts      Options
}

// New creates a Pipeline. A nil chart uses the embedded default.
func New(ex *extract.Extractor, table *standards.Table, ch *chart.Chart, opts Options) *Pipeline {
	if ch == nil {
		ch = chart.Default()
	}
	if opts.TopCategories <= 0 {
		opts.TopCategories = budget.DefaultTopN
	}
	return &Pipeline{extractor: ex, table: table, chart: ch, opts: opts}
}

// FromConfig builds a Pipeline from a validated config. ch, ai and m may be nil.
func FromConfig(cfg *config.Config, ch *chart.Chart, reader extract.DocumentReader, ai extract.AIExtractor, m *metrics.Metrics) (*Pipeline, error) {
	table, err := standards.Load(cfg.Standards.Version)
	if err != nil {
		return nil, err
	}
	classifier := classify.New(nil, classify.Options{
		BracketOverridesCredit: cfg.Extraction.BracketOverridesCredit,
		LowConfidence:          cfg.Thresholds.LowConfidence,
	})
	ex := extract.New(reader, ai, classifier, m, extract.Options{
		Workers:                      cfg.Extraction.Workers,
		TextFallbackOnMalformedTable: cfg.Extraction.TextFallbackOnMalformedTable,
		AITimeout:                    cfg.AI.Timeout,
		MaxDocumentChars:             cfg.AI.MaxDocumentChars,
	})
	return New(ex, table, ch, Options{
		Dedupe:             cfg.Thresholds.DedupeAcrossDocuments,
		TopCategories:      cfg.Budget.TopCategories,
		CNCEquityExemption: cfg.Thresholds.CNCEquityExemption,
	}), nil
}

// Standards returns the table the pipeline evaluates against.
func (p *Pipeline) Standards() *standards.Table { return p.table }

// DocumentReport summarizes one document of a budget run.
type DocumentReport struct {
	Document     string          `json:"document"`
	Status       string          `json:"status"`
	Trace        []extract.State `json:"trace"`
	Transactions int             `json:"transactions"`
	Error        string          `json:"error,omitempty"`
}

// BudgetReport is the result of a budget run.
type BudgetReport struct {
	RunID        string                        `json:"run_id"`
	Summary      model.BudgetSummary           `json:"summary"`
	Transactions []model.ClassifiedTransaction `json:"transactions"`
	Documents    []DocumentReport              `json:"documents"`
	Duplicates   int                           `json:"duplicates"`
	Rejected     int                           `json:"rejected"`
}

// Budget extracts and classifies every document, drops cross-document
// duplicates and invalid transactions, then aggregates by month. On
// cancellation the report covers the documents that completed and the
// error is returned alongside it.
func (p *Pipeline) Budget(ctx context.Context, trail *audit.Trail, docs []model.Document) (BudgetReport, error) {
	log := logger.FromContext(ctx).With().Str("run_id", trail.RunID()).Logger()
	report := BudgetReport{RunID: trail.RunID()}

	results, batchErr := p.extractor.Batch(ctx, trail, docs)

	var txns []model.ClassifiedTransaction
	for _, r := range results {
		dr := DocumentReport{Document: r.Document.ID, Trace: r.Trace, Transactions: len(r.Transactions), Status: string(extract.StatusOK)}
		if r.Err != nil {
			dr.Status = string(extract.StatusFailed)
			if Cancelled(r.Err) {
				dr.Status = string(audit.StatusCancelled)
			}
			dr.Error = r.Err.Error()
		}
		report.Documents = append(report.Documents, dr)
		txns = append(txns, r.Transactions...)
	}

	if p.opts.Dedupe {
		var dropped []faults.ValidationError
		txns, dropped = ledger.Dedupe(txns)
		for _, d := range dropped {
			trail.Warn(audit.Warning{
				Code: CodeDuplicate, Kind: faults.KindValidation, Message: d.Reason,
				Source:          sourceOf(d.Locator),
				SuggestedAction: "confirm the statements overlap",
			})
		}
		report.Duplicates = len(dropped)
	}

	txns, report.Rejected = p.rejectInvalid(trail, txns)
	report.Transactions = txns

	report.Summary = budget.Aggregate(txns, p.opts.TopCategories)
	trail.Record(audit.Entry{
		Step: "budget", Action: "aggregate",
		Input:  fmt.Sprintf("%d transactions", len(txns)),
		Output: fmt.Sprintf("%d months, income=%s expenses=%s", len(report.Summary.Months),
			report.Summary.AverageMonthlyIncome.StringFixed(2), report.Summary.AverageMonthlyExpenses.StringFixed(2)),
	})

	log.Info().
		Int("documents", len(docs)).
		Int("transactions", len(txns)).
		Int("duplicates", report.Duplicates).
		Int("rejected", report.Rejected).
		Msg("budget run finished")
	return report, batchErr
}

// rejectInvalid removes transactions that fail validation, recording an
// error for each failure.
func (p *Pipeline) rejectInvalid(trail *audit.Trail, txns []model.ClassifiedTransaction) ([]model.ClassifiedTransaction, int) {
	errs := ledger.Validate(txns)
	if len(errs) == 0 {
		return txns, 0
	}
	bad := make(map[string]bool, len(errs))
	for _, e := range errs {
		bad[e.Locator] = true
		trail.FailWith(CodeInvalidTransaction, sourceOf(e.Locator), e)
	}
	out := txns[:0:0]
	for _, t := range txns {
		if !bad[id.FormatLocator(t.DocumentID, t.Page, t.Line)] {
			out = append(out, t)
		}
	}
	return out, len(txns) - len(out)
}

// EvaluateReport is the result of an offer evaluation.
type EvaluateReport struct {
	RunID    string                  `json:"run_id"`
	Result   model.OICResult         `json:"result"`
	Snapshot model.FinancialSnapshot `json:"snapshot"`
	Filled   []string                `json:"filled,omitempty"`
	Budget   *BudgetReport           `json:"budget,omitempty"`
}

// Evaluate computes the offer figures for s. When docs are given, their
// budget first fills any expense category and income s leaves unreported.
// A cancelled budget is kept on the report and nothing is evaluated.
func (p *Pipeline) Evaluate(ctx context.Context, trail *audit.Trail, s model.FinancialSnapshot, docs []model.Document) (EvaluateReport, error) {
	report := EvaluateReport{RunID: trail.RunID(), Snapshot: s}

	if len(docs) > 0 {
		br, err := p.Budget(ctx, trail, docs)
		report.Budget = &br
		if err != nil {
			return report, fmt.Errorf("building budget: %w", err)
		}
		report.Snapshot, report.Filled = p.chart.Fill(s, br.Summary)
		for _, f := range report.Filled {
			trail.Record(audit.Entry{
				Step: "fill", Action: "from_budget",
				Source: audit.Source{Document: "budget"},
				Output: f,
				Notes:  strings.Join(p.chart.ByAllowance(model.ExpenseCategory(f)), ","),
			})
		}
	}

	res, err := calc.Evaluate(report.Snapshot, p.table, calc.Options{CNCEquityExemption: p.opts.CNCEquityExemption}, trail)
	if err != nil {
		return report, err
	}
	report.Result = res
	return report, nil
}

// Cancelled reports whether err ends a run early rather than failing it.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, faults.ErrCancelled)
}

// FinalStatus picks the trail status for a run that ended with err.
func FinalStatus(err error, trail *audit.Trail) audit.Status {
	switch {
	case Cancelled(err):
		return audit.StatusCancelled
	case err != nil:
		return audit.StatusFailed
	case trail.HasErrors():
		return audit.StatusPartial
	default:
		return audit.StatusCompleted
	}
}

func sourceOf(locator string) audit.Source {
	doc, page, line, err := id.ParseLocator(locator)
	if err != nil {
		return audit.Source{Document: locator}
	}
	return audit.Source{Document: doc, Page: page, Line: line}
}
