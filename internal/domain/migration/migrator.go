// Package migration folds stored status strings, canonical or legacy, onto
// the canonical workflow vocabulary.
package migration

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// FallbackStatus is returned for any input that is neither canonical nor mapped
const FallbackStatus = workflow.StatusCancelled

// Outcome classifies how an input was migrated
type Outcome string

const (
	OutcomeCanonical Outcome = "canonical"
	OutcomeLegacy    Outcome = "legacy"
	OutcomeFallback  Outcome = "fallback"
)

// Result is the outcome of migrating one input. Err is set only for fallbacks.
type Result struct {
	Input   string          `json:"input"`
	Status  workflow.Status `json:"status"`
	Outcome Outcome         `json:"outcome"`
	Err     error           `json:"-"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Warn(msg string, keysAndValues ...interface{})
}

// AnomalySink receives every fallback performed by Migrate
type AnomalySink func(err *workflow.UnknownLegacyStatusError)

// Migrator is safe for concurrent use once constructed
type Migrator struct {
	legacy     map[string]workflow.Status
	normalized map[string]workflow.Status
	reverse    map[workflow.Status][]string
	logger     Logger
	sink       AnomalySink
}

// Option configures the migrator
type Option func(*Migrator)

// WithLogger logs every fallback at warn level
func WithLogger(logger Logger) Option {
	return func(m *Migrator) {
		m.logger = logger
	}
}

// WithAnomalySink registers a callback for fallbacks
func WithAnomalySink(sink AnomalySink) Option {
	return func(m *Migrator) {
		m.sink = sink
	}
}

// WithTable replaces the default legacy table
func WithTable(table map[string]workflow.Status) Option {
	return func(m *Migrator) {
		m.legacy = table
	}
}

// NewMigrator creates a migrator over workflow.LegacyStatusMap. It panics if
// the table maps to a non-canonical status or if two keys normalise to the
// same form with different targets.
func NewMigrator(opts ...Option) *Migrator {
	m := &Migrator{
		legacy: workflow.LegacyStatusMap,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.normalized = make(map[string]workflow.Status, len(m.legacy)+len(workflow.CanonicalStatuses()))
	m.reverse = make(map[workflow.Status][]string)

	for _, s := range workflow.CanonicalStatuses() {
		m.normalized[m.normalize(string(s))] = s
	}

	for raw, target := range m.legacy {
		if !target.IsValid() {
			panic(fmt.Sprintf("legacy status %q maps to non-canonical %q", raw, target))
		}
		key := m.normalize(raw)
		if existing, ok := m.normalized[key]; ok && existing != target {
			panic(fmt.Sprintf("legacy status %q collides with another entry (%s vs %s)", raw, existing, target))
		}
		m.normalized[key] = target
		m.reverse[target] = append(m.reverse[target], raw)
	}

	for target := range m.reverse {
		sort.Strings(m.reverse[target])
	}

	return m
}

// IsCanonical reports whether s is a member of the canonical set
func (m *Migrator) IsCanonical(s string) bool {
	return workflow.Status(s).IsValid()
}

// Inspect classifies s without recording anomalies
func (m *Migrator) Inspect(s string) Result {
	if m.IsCanonical(s) {
		return Result{Input: s, Status: workflow.Status(s), Outcome: OutcomeCanonical}
	}

	if target, ok := m.legacy[s]; ok {
		return Result{Input: s, Status: target, Outcome: OutcomeLegacy}
	}

	if target, ok := m.normalized[m.normalize(s)]; ok {
		return Result{Input: s, Status: target, Outcome: OutcomeLegacy}
	}

	return Result{
		Input:   s,
		Status:  FallbackStatus,
		Outcome: OutcomeFallback,
		Err:     &workflow.UnknownLegacyStatusError{Raw: s, Fallback: FallbackStatus},
	}
}

// Migrate returns the canonical status for s. Unknown input falls back to
// Cancelled and is reported to the logger and anomaly sink; it never fails.
func (m *Migrator) Migrate(s string) workflow.Status {
	res := m.Inspect(s)
	if res.Outcome == OutcomeFallback {
		m.recordAnomaly(res.Err.(*workflow.UnknownLegacyStatusError))
	}
	return res.Status
}

// MigrateBatch migrates each input; the output has the same length and order
func (m *Migrator) MigrateBatch(inputs []string) []workflow.Status {
	out := make([]workflow.Status, len(inputs))
	for i, s := range inputs {
		out[i] = m.Migrate(s)
	}
	return out
}

// ReverseLookup returns the sorted legacy strings that fold to canonical
func (m *Migrator) ReverseLookup(canonical workflow.Status) []string {
	return append([]string{}, m.reverse[canonical]...)
}

func (m *Migrator) recordAnomaly(err *workflow.UnknownLegacyStatusError) {
	if m.logger != nil {
		m.logger.Warn("Unknown status migrated to fallback",
			"raw_status", err.Raw,
			"fallback", err.Fallback.String(),
		)
	}
	if m.sink != nil {
		m.sink(err)
	}
}

// normalize folds case, trims whitespace and composes accents so that
// "  ORÇAMENTO APROVADO" and a decomposed "Orçamento aprovado" match.
func (m *Migrator) normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	// Casers are stateful and cannot be shared between goroutines
	return cases.Fold().String(s)
}
