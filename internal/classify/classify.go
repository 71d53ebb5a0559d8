// Package classify assigns direction and category to statement lines.
package classify

import (
	_ "embed"
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vindicatenyc/vindicate-app/internal/faults"
	"github.com/vindicatenyc/vindicate-app/internal/id"
	"github.com/vindicatenyc/vindicate-app/internal/model"
)

// CategoryOther is the fallback when no rule matches.
const CategoryOther = "other"

// Finding codes.
const (
	CodeLowConfidence          = "LOW_CONFIDENCE"
	CodeBracketOverridesCredit = "BRACKET_OVERRIDES_CREDIT_KEYWORD"
)

const (
	matchedConfidence  = 1.0
	fallbackConfidence = 0.5
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// CategoryRule maps keywords to a category.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rules is an ordered keyword table. Earlier categories take priority.
type Rules struct {
	CreditKeywords []string       `yaml:"credit_keywords"`
	Categories     []CategoryRule `yaml:"categories"`
}

var (
	defaultOnce  sync.Once
	defaultRules *Rules
	defaultErr   error
)

// DefaultRules returns the embedded rule table.
func DefaultRules() *Rules {
	defaultOnce.Do(func() {
		defaultRules, defaultErr = ParseRules(defaultRulesYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded classification rules: %v", defaultErr))
	}
	return defaultRules
}

// ParseRules reads a rule table from YAML. Keywords are lower-cased.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing classification rules: %w", err)
	}
	if len(r.Categories) == 0 {
		return nil, faults.Configf("classify", "categories", "rule table has no categories")
	}
	seen := make(map[string]bool, len(r.Categories))
	for i := range r.Categories {
		c := &r.Categories[i]
		if c.Name == "" || c.Name == CategoryOther || seen[c.Name] {
			return nil, faults.Configf("classify", fmt.Sprintf("categories[%d]", i), "invalid or duplicate name %q", c.Name)
		}
		seen[c.Name] = true
		c.Keywords = lowerAll(c.Keywords)
	}
	r.CreditKeywords = lowerAll(r.CreditKeywords)
	return &r, nil
}

// Names lists category names in priority order, followed by "other".
func (r *Rules) Names() []string {
	out := make([]string, 0, len(r.Categories)+1)
	for _, c := range r.Categories {
		out = append(out, c.Name)
	}
	return append(out, CategoryOther)
}

// Options select classification policy.
type Options struct {
	// BracketOverridesCredit makes a parenthesized amount a debit even when
	// a credit keyword matches.
	BracketOverridesCredit bool
	// LowConfidence is the threshold below which a finding is raised.
	LowConfidence float64
}

// Finding is a recoverable classification concern.
type Finding struct {
	Code    string
	Kind    faults.Kind
	Message string
}

// Classifier applies a rule table. It holds no mutable state.
type Classifier struct {
	rules *Rules
	opts  Options
}

// New creates a Classifier. A nil rules table uses DefaultRules.
func New(rules *Rules, opts Options) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, opts: opts}
}

// Classify decides direction, category and confidence for one raw line.
func (c *Classifier) Classify(raw model.RawTransaction) (model.ClassifiedTransaction, []Finding, error) {
	amt, err := ParseAmount(raw.AmountText)
	if err != nil {
		return model.ClassifiedTransaction{}, nil, err
	}

	var findings []Finding
	desc := strings.ToLower(raw.Description)
	creditKeyword := matchAny(desc, c.rules.CreditKeywords)

	var dir model.Direction
	switch {
	case amt.Bracketed && c.opts.BracketOverridesCredit:
		dir = model.DirectionDebit
		if creditKeyword != "" || raw.Hint == model.DirectionCredit {
			findings = append(findings, Finding{
				Code:    CodeBracketOverridesCredit,
				Kind:    faults.KindClassificationAmbiguity,
				Message: fmt.Sprintf("bracketed amount %s treated as debit despite credit signal %q", raw.AmountText, firstNonEmpty(creditKeyword, "hint")),
			})
		}
	case raw.Hint.Valid():
		dir = raw.Hint
	case amt.CreditMarker:
		dir = model.DirectionCredit
	case amt.DebitMarker, amt.Negative:
		dir = model.DirectionDebit
	case creditKeyword != "":
		dir = model.DirectionCredit
	default:
		dir = model.DirectionDebit
	}

	category, confidence := CategoryOther, fallbackConfidence
	if name := c.category(desc); name != "" {
		category, confidence = name, matchedConfidence
	}
	if raw.SourceConfidence > 0 {
		confidence *= raw.SourceConfidence
	}
	confidence = math.Round(confidence*100) / 100

	if confidence < c.opts.LowConfidence {
		findings = append(findings, Finding{
			Code:    CodeLowConfidence,
			Kind:    faults.KindClassificationAmbiguity,
			Message: fmt.Sprintf("%q classified as %s/%s with confidence %.2f", raw.Description, dir, category, confidence),
		})
	}

	return model.ClassifiedTransaction{
		RawTransaction: raw,
		ID:             id.TransactionID(raw.DocumentID, raw.Page, raw.Line),
		Direction:      dir,
		Category:       category,
		Confidence:     confidence,
		Amount:         amt.Value,
	}, findings, nil
}

func (c *Classifier) category(desc string) string {
	for _, rule := range c.rules.Categories {
		if matchAny(desc, rule.Keywords) != "" {
			return rule.Name
		}
	}
	return ""
}

func matchAny(text string, keywords []string) string {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
