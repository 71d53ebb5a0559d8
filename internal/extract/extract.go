// Package extract runs the per-document extraction state machine: an
// optional AI pass, then table and text strategies page by page, then
// classification.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/vindicatenyc/vindicate-app/internal/audit"
	"github.com/vindicatenyc/vindicate-app/internal/classify"
	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/logger"
	"github.com/vindicatenyc/vindicate-app/internal/metrics"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// Audit codes raised during extraction.
const (
	CodeDocumentUnreadable = "DOCUMENT_UNREADABLE"
	CodeDocumentUnparsed   = "DOCUMENT_UNPARSED"
	CodePageUnreadable     = "PAGE_UNREADABLE"
	CodeTableNoRows        = "TABLE_NO_ROWS"
	CodeAIFailed           = "AI_EXTRACTION_FAILED"
	CodeAIItemsDropped     = "AI_ITEMS_DROPPED"
	CodeYearUnknown        = "YEAR_UNKNOWN"
	CodeAmountUnparsable   = "AMOUNT_UNPARSABLE"
	CodeCancelled          = "CANCELLED"
)

// Source confidences by strategy.
const (
	aiConfidence    = 0.85
	tableConfidence = 0.8
	textConfidence  = 0.7
)

// errNoTransactions is the cause recorded for a readable document that
// yields nothing.
var errNoTransactions = errors.New("no transactions recovered")

// minAIChars is the least document text worth sending to the AI extractor.
const minAIChars = 50

// DocumentReader produces page content for a document.
type DocumentReader interface {
	Read(ctx context.Context, doc model.Document) (*model.DocumentContent, error)
}

// AIExtractor returns raw transactions for a whole document's text, and
// how many items it had to discard.
type AIExtractor interface {
	Extract(ctx context.Context, text string) ([]model.RawTransaction, int, error)
}

// State is a step in a document's extraction.
type State string

const (
	StateNotStarted     State = "not_started"
	StateLLMAttempted   State = "llm_attempted"
	StateTableAttempted State = "table_attempted"
	StateTextAttempted  State = "text_attempted"
	StateDone           State = "done"
)

// Status is the result of one strategy attempt.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Outcome is what a strategy returns: transactions, or a reason it failed.
type Outcome struct {
	Status       Status
	Transactions []model.RawTransaction
	Reason       string
	// Dropped counts items the strategy found but could not use.
	Dropped int
}

func succeeded(txns []model.RawTransaction) Outcome {
	return Outcome{Status: StatusOK, Transactions: txns}
}

func failed(format string, args ...any) Outcome {
	return Outcome{Status: StatusFailed, Reason: fmt.Sprintf(format, args...)}
}

// DocumentResult is everything extracted from one document.
type DocumentResult struct {
	Document     model.Document
	Trace        []State
	Raw          []model.RawTransaction
	Transactions []model.ClassifiedTransaction
	// Err is set when the document as a whole could not be processed.
	Err error
}

// Options tune the extractor.
type Options struct {
	Workers                      int
	TextFallbackOnMalformedTable bool
	AITimeout                    time.Duration
	MaxDocumentChars             int
}

// Extractor turns documents into classified transactions. It holds no
// per-run state and can be shared across goroutines.
type Extractor struct {
	reader     DocumentReader
	ai         AIExtractor
	classifier *classify.Classifier
	metrics    *metrics.Metrics
	opts       Options
}

// New creates an Extractor. ai and m may be nil.
func New(reader DocumentReader, ai AIExtractor, classifier *classify.Classifier, m *metrics.Metrics, opts Options) *Extractor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.AITimeout <= 0 {
		opts.AITimeout = 60 * time.Second
	}
	if classifier == nil {
		classifier = classify.New(nil, classify.Options{BracketOverridesCredit: true})
	}
	return &Extractor{reader: reader, ai: ai, classifier: classifier, metrics: m, opts: opts}
}

// run tracks one document through the state machine.
type run struct {
	result DocumentResult
	trail  *audit.Trail
}

func (r *run) enter(s State) {
	if n := len(r.result.Trace); n > 0 && r.result.Trace[n-1] == s {
		return
	}
	r.result.Trace = append(r.result.Trace, s)
}

func (r *run) source(page, line int) audit.Source {
	return audit.Source{Document: r.result.Document.ID, Page: page, Line: line}
}

// Extract processes one document. Failures are recorded on the trail and
// never abort the caller; the result carries whatever was recovered. A
// document that yields no transactions, or is cancelled, has Err set.
func (e *Extractor) Extract(ctx context.Context, trail *audit.Trail, doc model.Document) DocumentResult {
	log := logger.FromContext(ctx).With().Str("document", doc.ID).Logger()
	r := &run{result: DocumentResult{Document: doc}, trail: trail}
	r.enter(StateNotStarted)
	trail.AddDocument(doc.ID)

	if err := ctx.Err(); err != nil {
		return e.cancelled(r, err)
	}

	content, err := e.read(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return e.cancelled(r, ctx.Err())
		}
		log.Warn().Err(err).Msg("document unreadable")
		trail.FailWith(CodeDocumentUnreadable, r.source(0, 0), err)
		r.result.Err = err
		r.enter(StateDone)
		e.metrics.ObserveDocument("failed")
		return r.result
	}

	var raws []model.RawTransaction
	if e.ai != nil {
		r.enter(StateLLMAttempted)
		out := e.tryAI(ctx, doc, content)
		e.metrics.ObserveStrategy(string(model.MethodAI), string(out.Status))
		if out.Status == StatusOK {
			raws = out.Transactions
			trail.Record(audit.Entry{
				Step: "extract", Action: "ai", Source: r.source(0, 0),
				Output: fmt.Sprintf("%d transactions", len(raws)),
			})
			if out.Dropped > 0 {
				trail.Warn(audit.Warning{
					Code: CodeAIItemsDropped, Kind: faults.KindExtraction, Source: r.source(0, 0),
					Message:         fmt.Sprintf("%d items from the AI extractor lacked a usable date, description or amount", out.Dropped),
					SuggestedAction: "compare the statement against the extracted transactions",
				})
			}
		} else {
			trail.Warn(audit.Warning{
				Code: CodeAIFailed, Kind: faults.KindExtraction, Message: out.Reason,
				Source: r.source(0, 0), SuggestedAction: "falling back to table and text extraction",
			})
		}
	}

	if raws == nil {
		raws = e.extractPages(ctx, r, content)
	}
	r.result.Raw = raws

	for _, raw := range raws {
		e.classify(r, raw)
	}

	if err := ctx.Err(); err != nil {
		return e.cancelled(r, err)
	}
	r.enter(StateDone)
	if len(r.result.Transactions) == 0 {
		err := &faults.ExtractionError{Document: doc.ID, Err: errNoTransactions}
		log.Warn().Err(err).Msg("document unparsed")
		trail.FailWith(CodeDocumentUnparsed, r.source(0, 0), err)
		r.result.Err = err
		e.metrics.ObserveDocument("unparsed")
		return r.result
	}
	e.metrics.ObserveDocument("ok")
	log.Debug().Int("transactions", len(r.result.Transactions)).Interface("trace", r.result.Trace).Msg("document extracted")
	return r.result
}

// Batch processes documents on a bounded worker pool. Results keep input
// order. Documents not started before ctx is cancelled are recorded as
// cancelled; the returned error is ctx.Err().
func (e *Extractor) Batch(ctx context.Context, trail *audit.Trail, docs []model.Document) ([]DocumentResult, error) {
	results := make([]DocumentResult, len(docs))
	started := make([]bool, len(docs))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = e.Extract(ctx, trail, doc)
			return nil
		})
	}
	_ = g.Wait()

	for i, doc := range docs {
		if !started[i] {
			r := &run{result: DocumentResult{Document: doc}, trail: trail}
			r.enter(StateNotStarted)
			trail.AddDocument(doc.ID)
			results[i] = e.cancelled(r, ctx.Err())
		}
	}
	return results, ctx.Err()
}

func (e *Extractor) cancelled(r *run, cause error) DocumentResult {
	err := fmt.Errorf("%w: %w", faults.ErrCancelled, cause)
	r.trail.FailWith(CodeCancelled, r.source(0, 0), err)
	r.result.Err = err
	r.enter(StateDone)
	e.metrics.ObserveDocument("cancelled")
	return r.result
}

// read calls the reader, converting a panic into an extraction error.
func (e *Extractor) read(ctx context.Context, doc model.Document) (content *model.DocumentContent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &faults.ExtractionError{Document: doc.ID, Err: fmt.Errorf("reader panic: %v", rec)}
		}
	}()
	content, err = e.reader.Read(ctx, doc)
	if err != nil && !errors.Is(err, faults.ErrExtraction) {
		err = &faults.ExtractionError{Document: doc.ID, Err: err}
	}
	if err == nil && content == nil {
		content = &model.DocumentContent{}
	}
	return content, err
}

// extractPages runs the table and text strategies page by page.
func (e *Extractor) extractPages(ctx context.Context, r *run, content *model.DocumentContent) []model.RawTransaction {
	doc := r.result.Document
	var out []model.RawTransaction
	for _, page := range content.Pages {
		if ctx.Err() != nil {
			break
		}
		if page.Err != nil {
			r.trail.FailWith(CodePageUnreadable, r.source(page.Number, 0),
				&faults.ExtractionError{Document: doc.ID, Page: page.Number, Err: page.Err})
			continue
		}

		if len(page.Tables) > 0 {
			r.enter(StateTableAttempted)
			res := parseTables(doc, page)
			e.metrics.ObserveStrategy(string(model.MethodTable), string(res.Status))
			if res.Status == StatusOK {
				out = append(out, res.Transactions...)
				r.trail.Record(audit.Entry{
					Step: "extract", Action: "table", Source: r.source(page.Number, 0),
					Output: fmt.Sprintf("%d transactions", len(res.Transactions)),
				})
				continue
			}
			suggested := "review the page manually"
			if e.opts.TextFallbackOnMalformedTable {
				suggested = "falling back to text extraction"
			}
			r.trail.Warn(audit.Warning{
				Code: CodeTableNoRows, Kind: faults.KindExtraction, Message: res.Reason,
				Source: r.source(page.Number, 0), SuggestedAction: suggested,
			})
			if !e.opts.TextFallbackOnMalformedTable {
				continue
			}
		}

		r.enter(StateTextAttempted)
		res, noYear := parseText(doc, page)
		e.metrics.ObserveStrategy(string(model.MethodText), string(res.Status))
		if noYear > 0 {
			r.trail.Warn(audit.Warning{
				Code: CodeYearUnknown, Kind: faults.KindExtraction,
				Message:         fmt.Sprintf("%d lines dated without a year and no statement date", noYear),
				Source:          r.source(page.Number, 0),
				SuggestedAction: "set the statement date for this document",
			})
		}
		output := fmt.Sprintf("%d transactions", len(res.Transactions))
		if res.Status == StatusFailed {
			output = res.Reason
		}
		r.trail.Record(audit.Entry{Step: "extract", Action: "text", Source: r.source(page.Number, 0), Output: output})
		out = append(out, res.Transactions...)
	}
	return out
}

// tryAI sends the whole document text to the AI extractor once.
func (e *Extractor) tryAI(ctx context.Context, doc model.Document, content *model.DocumentContent) Outcome {
	text := content.Text()
	if len(text) < minAIChars {
		return failed("document text too short for AI extraction (%d chars)", len(text))
	}
	if limit := e.opts.MaxDocumentChars; limit > 0 && len(text) > limit {
		text = truncate(text, limit)
	}

	actx, cancel := context.WithTimeout(ctx, e.opts.AITimeout)
	defer cancel()

	start := time.Now()
	txns, dropped, err := e.ai.Extract(actx, text)
	e.metrics.ObserveAILatency(time.Since(start))
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failed("AI extraction timed out after %s", e.opts.AITimeout)
	case err != nil:
		return failed("AI extraction: %v", err)
	case len(txns) == 0 && dropped > 0:
		return failed("AI extraction returned %d items and none were usable", dropped)
	case len(txns) == 0:
		return failed("AI extraction returned no transactions")
	}

	out := make([]model.RawTransaction, len(txns))
	for i, t := range txns {
		t.DocumentID = doc.ID
		t.Method = model.MethodAI
		if t.Line == 0 {
			t.Line = i + 1
		}
		if t.SourceConfidence == 0 {
			t.SourceConfidence = aiConfidence
		}
		out[i] = t
	}
	res := succeeded(out)
	res.Dropped = dropped
	return res
}

func (e *Extractor) classify(r *run, raw model.RawTransaction) {
	src := audit.Source{
		Document: raw.DocumentID, Page: raw.Page, Line: raw.Line,
		RawText: raw.Description + " " + raw.AmountText, Method: string(raw.Method),
	}
	txn, findings, err := e.classifier.Classify(raw)
	if err != nil {
		r.trail.FailWith(CodeAmountUnparsable, src,
			&faults.ExtractionError{Document: raw.DocumentID, Page: raw.Page, Err: err})
		return
	}
	src.Confidence = txn.Confidence
	for _, f := range findings {
		if f.Code == classify.CodeLowConfidence {
			e.metrics.IncLowConfidence()
		}
		r.trail.Warn(audit.Warning{Code: f.Code, Kind: f.Kind, Message: f.Message, Source: src, SuggestedAction: "review the classification"})
	}
	r.trail.Record(audit.Entry{
		Step: "classify", Action: "categorized", Source: src,
		Input:  raw.AmountText,
		Output: fmt.Sprintf("%s %s %s", txn.Direction, txn.Category, txn.Amount.StringFixed(2)),
	})
	e.metrics.ObserveTransaction(string(raw.Method), string(txn.Direction))
	r.result.Transactions = append(r.result.Transactions, txn)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
