// Package correction implements failure learning: categorizing task
// failures, deriving prevention rules, and persisting a recurrence-aware
// mistake memory that future reflection passes consult.
package correction

import "time"

// FailureCategory classifies a failure by its likely root cause.
type FailureCategory string

const (
	CategoryValidation FailureCategory = "validation"
	CategoryDependency FailureCategory = "dependency"
	CategoryType       FailureCategory = "type"
	CategoryLogic      FailureCategory = "logic"
	CategoryUnknown    FailureCategory = "unknown"
)

// RootCause is the analysis of a single failure: its category, the evidence
// behind the classification, a templated prevention rule, and validation
// tests that would have caught it earlier.
type RootCause struct {
	Category       FailureCategory `json:"category"`
	Summary        string          `json:"summary"`
	Evidence       []string        `json:"evidence"`
	PreventionRule string          `json:"prevention_rule"`
	SuggestedTests []string        `json:"suggested_tests"`
}

// FailureEntry is one remembered mistake. Entries are deduplicated by
// Signature; a repeat occurrence bumps RecurrenceCount and LastSeen instead
// of appending.
type FailureEntry struct {
	Signature       string          `json:"signature"`
	Task            string          `json:"task"`
	Error           string          `json:"error"`
	Category        FailureCategory `json:"category"`
	PreventionRule  string          `json:"prevention_rule"`
	RecurrenceCount int             `json:"recurrence_count"`
	Fixed           bool            `json:"fixed"`
	FixDescription  string          `json:"fix_description,omitempty"`
	FirstSeen       time.Time       `json:"first_seen"`
	LastSeen        time.Time       `json:"last_seen"`
}

// Memory is the persisted mistake store, serialized as reflexion.json.
type Memory struct {
	Version         int            `json:"version"`
	Mistakes        []FailureEntry `json:"mistakes"`
	PreventionRules []string       `json:"prevention_rules"`
}

// MemoryVersion is the current on-disk format version.
const MemoryVersion = 1

// NewMemory returns an empty memory skeleton.
func NewMemory() *Memory {
	return &Memory{
		Version:         MemoryVersion,
		Mistakes:        []FailureEntry{},
		PreventionRules: []string{},
	}
}

// HasRule reports whether the rule is already present.
func (m *Memory) HasRule(rule string) bool {
	for _, r := range m.PreventionRules {
		if r == rule {
			return true
		}
	}
	return false
}

// FindBySignature returns the entry with the given signature, or nil.
func (m *Memory) FindBySignature(sig string) *FailureEntry {
	for i := range m.Mistakes {
		if m.Mistakes[i].Signature == sig {
			return &m.Mistakes[i]
		}
	}
	return nil
}
