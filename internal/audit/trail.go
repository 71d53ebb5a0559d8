// Package audit records the provenance of every derived figure in a run.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/id"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Source locates the statement text a record was derived from.
type Source struct {
	Document   string  `json:"document,omitempty"`
	Page       int     `json:"page,omitempty"`
	Line       int     `json:"line,omitempty"`
	RawText    string  `json:"raw_text,omitempty"`
	Method     string  `json:"method,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Reference renders the source as "doc:p3:l12", or "" when unset.
func (s Source) Reference() string {
	if s.Document == "" {
		return ""
	}
	return id.FormatLocator(s.Document, s.Page, s.Line)
}

// Entry records one processing step.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Action    string    `json:"action"`
	Source    Source    `json:"source"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Warning records a recoverable condition that deserves review.
type Warning struct {
	Timestamp       time.Time   `json:"timestamp"`
	Code            string      `json:"code"`
	Kind            faults.Kind `json:"kind"`
	Message         string      `json:"message"`
	Source          Source      `json:"source"`
	SuggestedAction string      `json:"suggested_action,omitempty"`
}

// Error records a failed unit of work.
type Error struct {
	Timestamp      time.Time   `json:"timestamp"`
	Code           string      `json:"code"`
	Kind           faults.Kind `json:"kind"`
	Message        string      `json:"message"`
	Source         Source      `json:"source"`
	Recoverable    bool        `json:"recoverable"`
	RecoveryAction string      `json:"recovery_action,omitempty"`
}

// Summary counts the records in a trail.
type Summary struct {
	Entries        int  `json:"entries"`
	Warnings       int  `json:"warnings"`
	Errors         int  `json:"errors"`
	Documents      int  `json:"documents"`
	HasErrors      bool `json:"has_errors"`
	RequiresReview bool `json:"requires_review"`
}

// Snapshot is a read-only copy of a trail.
type Snapshot struct {
	RunID       string     `json:"run_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      Status     `json:"status"`
	Entries     []Entry    `json:"entries"`
	Warnings    []Warning  `json:"warnings"`
	Errors      []Error    `json:"errors"`
	Documents   []string   `json:"source_documents"`
	Summary     Summary    `json:"summary"`
}

// Options configure a Trail. Zero values pick a random run ID, the UTC
// wall clock and a disabled logger.
type Options struct {
	RunID  string
	Clock  func() time.Time
	Logger *zerolog.Logger
}

// Trail is the append-only ledger for one run. It is safe for concurrent use.
// Once completed it rejects further writes.
type Trail struct {
	mu       sync.Mutex
	log      zerolog.Logger
	clock    func() time.Time
	runID    string
	started  time.Time
	done     *time.Time
	status   Status
	entries  []Entry
	warnings []Warning
	errors   []Error
	docs     []string
	docSeen  map[string]bool
	rejected int
}

// NewTrail starts a trail in the running state.
func NewTrail(opts Options) *Trail {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("run_id", runID).Logger()
	}
	t := &Trail{
		log:     log,
		clock:   func() time.Time { return clock().UTC() },
		runID:   runID,
		status:  StatusRunning,
		docSeen: make(map[string]bool),
	}
	t.started = t.clock()
	return t
}

// RunID returns the run identifier.
func (t *Trail) RunID() string { return t.runID }

// Record appends a processing step.
func (t *Trail) Record(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.writable("entry") {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = t.clock()
	}
	t.entries = append(t.entries, e)
	t.log.Debug().Str("step", e.Step).Str("action", e.Action).Str("source", e.Source.Reference()).Msg(e.Output)
}

// Warn appends a warning.
func (t *Trail) Warn(w Warning) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.writable("warning") {
		return
	}
	if w.Timestamp.IsZero() {
		w.Timestamp = t.clock()
	}
	t.warnings = append(t.warnings, w)
	t.log.Warn().Str("code", w.Code).Str("kind", string(w.Kind)).Str("source", w.Source.Reference()).Msg(w.Message)
}

// Fail appends an error record.
func (t *Trail) Fail(e Error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.writable("error") {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = t.clock()
	}
	t.errors = append(t.errors, e)
	t.log.Error().Str("code", e.Code).Str("kind", string(e.Kind)).Bool("recoverable", e.Recoverable).
		Str("source", e.Source.Reference()).Msg(e.Message)
}

// FailWith records err under code, deriving kind and recoverability from the error.
func (t *Trail) FailWith(code string, src Source, err error) {
	kind := faults.KindOf(err)
	t.Fail(Error{Code: code, Kind: kind, Message: err.Error(), Source: src, Recoverable: kind.Recoverable()})
}

// AddDocument registers a source document once.
func (t *Trail) AddDocument(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.writable("document") || t.docSeen[name] {
		return
	}
	t.docSeen[name] = true
	t.docs = append(t.docs, name)
}

// Complete seals the trail with a final status.
func (t *Trail) Complete(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return
	}
	now := t.clock()
	t.done = &now
	t.status = status
	t.log.Info().Str("status", string(status)).Int("entries", len(t.entries)).
		Int("warnings", len(t.warnings)).Int("errors", len(t.errors)).Msg("audit trail completed")
}

// Rejected returns how many writes arrived after Complete.
func (t *Trail) Rejected() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rejected
}

// HasErrors reports whether any error was recorded.
func (t *Trail) HasErrors() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.errors) > 0
}

// Snapshot returns a deep copy of the trail.
func (t *Trail) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Snapshot{
		RunID:     t.runID,
		StartedAt: t.started,
		Status:    t.status,
		Entries:   append([]Entry(nil), t.entries...),
		Warnings:  append([]Warning(nil), t.warnings...),
		Errors:    append([]Error(nil), t.errors...),
		Documents: append([]string(nil), t.docs...),
		Summary: Summary{
			Entries:        len(t.entries),
			Warnings:       len(t.warnings),
			Errors:         len(t.errors),
			Documents:      len(t.docs),
			HasErrors:      len(t.errors) > 0,
			RequiresReview: len(t.warnings) > 0 || len(t.errors) > 0,
		},
	}
	if t.done != nil {
		done := *t.done
		s.CompletedAt = &done
	}
	return s
}

// writable must be called with mu held.
func (t *Trail) writable(what string) bool {
	if t.done == nil {
		return true
	}
	t.rejected++
	t.log.Warn().Str("record", what).Msg("audit trail is sealed, write dropped")
	return false
}
