package correction

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrison/preflight/internal/similarity"
)

// Logger is the minimal logging surface the engine needs. A nil Logger
// disables logging.
type Logger interface {
	LogInfo(message string)
	LogWarn(message string)
}

// categoryKeywords drive failure classification. Order matters: the first
// category with a keyword hit wins, so validation outranks dependency,
// dependency outranks type, and type outranks logic.
var categoryKeywords = []struct {
	category FailureCategory
	keywords []string
}{
	{CategoryValidation, []string{"validation", "invalid", "schema", "constraint"}},
	{CategoryDependency, []string{"import", "module", "dependency", "not installed", "not found"}},
	{CategoryType, []string{"type", "attribute", "cast", "conversion"}},
	{CategoryLogic, []string{"assertion", "assert", "expected", "off by", "logic"}},
}

// Engine analyzes failures and maintains the mistake memory.
type Engine struct {
	store  *MemoryStore
	logger Logger
}

// NewEngine creates a self-correction engine over the given store. The
// logger is optional and can be nil.
func NewEngine(store *MemoryStore, logger Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// Memory returns the underlying mistake store.
func (e *Engine) Memory() *MemoryStore {
	return e.store
}

// DetectFailure reports whether a task status string denotes a failure.
func (e *Engine) DetectFailure(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "failed", "error":
		return true
	default:
		return false
	}
}

// Categorize classifies a failure message by keyword, with fixed precedence
// validation > dependency > type > logic. Messages matching nothing are
// CategoryUnknown.
func Categorize(failure string) FailureCategory {
	category, _ := categorize(failure)
	return category
}

// categorize returns the category and the keyword that decided it. An
// unknown category has no keyword.
func categorize(failure string) (FailureCategory, string) {
	lower := strings.ToLower(failure)
	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				return ck.category, kw
			}
		}
	}
	return CategoryUnknown, ""
}

// AnalyzeRootCause categorizes a failure and derives a prevention rule and
// suggested validation tests. When the memory already holds similar
// failures, the rule cites how often this mistake has been seen.
func (e *Engine) AnalyzeRootCause(task, failure string) (*RootCause, error) {
	category, keyword := categorize(failure)

	evidence := []string{fmt.Sprintf("failure message: %s", failure)}
	if keyword != "" {
		evidence = append(evidence, fmt.Sprintf("matched %s keyword %q", category, keyword))
	} else {
		evidence = append(evidence, "no known failure keyword matched")
	}

	rule := preventionRule(category, task)
	prior, err := e.priorOccurrences(task, failure)
	if err != nil {
		// Degrade to an uncounted rule rather than failing analysis.
		if e.logger != nil {
			e.logger.LogWarn(fmt.Sprintf("mistake memory unavailable: %v", err))
		}
		prior = 0
	}
	if prior > 0 {
		rule = fmt.Sprintf("%s (seen %d times before)", rule, prior)
		evidence = append(evidence, fmt.Sprintf("%d similar failure(s) on record", prior))
	}

	return &RootCause{
		Category:       category,
		Summary:        fmt.Sprintf("%s failure while executing %q: %s", category, task, failure),
		Evidence:       evidence,
		PreventionRule: rule,
		SuggestedTests: suggestedTests(category),
	}, nil
}

// LearnAndPrevent records the failure in the mistake memory. A failure with
// the same signature bumps its recurrence count instead of appending; the
// prevention rule is added to the rules list if new.
func (e *Engine) LearnAndPrevent(task, failure string, cause *RootCause) error {
	sig := similarity.Signature(string(cause.Category), task, failure)

	err := e.store.Update(func(m *Memory) error {
		now := time.Now().UTC()
		if entry := m.FindBySignature(sig); entry != nil {
			entry.RecurrenceCount++
			entry.LastSeen = now
			entry.PreventionRule = cause.PreventionRule
			// A recurrence means the recorded fix did not hold.
			entry.Fixed = false
			entry.FixDescription = ""
		} else {
			m.Mistakes = append(m.Mistakes, FailureEntry{
				Signature:       sig,
				Task:            task,
				Error:           failure,
				Category:        cause.Category,
				PreventionRule:  cause.PreventionRule,
				RecurrenceCount: 1,
				FirstSeen:       now,
				LastSeen:        now,
			})
		}
		if !m.HasRule(cause.PreventionRule) {
			m.PreventionRules = append(m.PreventionRules, cause.PreventionRule)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record mistake: %w", err)
	}

	if e.logger != nil {
		e.logger.LogInfo(fmt.Sprintf("learned from %s failure (signature %s)", cause.Category, sig))
	}
	return nil
}

// MarkFixed records that the remembered mistake with the given signature
// has been addressed, keeping the entry so recurrences stay detectable.
func (e *Engine) MarkFixed(signature, description string) error {
	err := e.store.Update(func(m *Memory) error {
		entry := m.FindBySignature(signature)
		if entry == nil {
			return fmt.Errorf("no mistake with signature %s", signature)
		}
		entry.Fixed = true
		entry.FixDescription = description
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark mistake fixed: %w", err)
	}

	if e.logger != nil {
		e.logger.LogInfo(fmt.Sprintf("marked mistake %s as fixed", signature))
	}
	return nil
}

// CheckAgainstPastMistakes returns remembered failures whose task
// descriptions are lexically similar to the given task. An empty or missing
// memory yields no matches.
func (e *Engine) CheckAgainstPastMistakes(task string) ([]FailureEntry, error) {
	m, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	var matches []FailureEntry
	for _, entry := range m.Mistakes {
		if similarity.ScoreWithErrorType(task, entry.Task) >= similarity.MatchThreshold {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// priorOccurrences sums the recurrence counts of remembered failures similar
// to the given task and error.
func (e *Engine) priorOccurrences(task, failure string) (int, error) {
	m, err := e.store.Load()
	if err != nil {
		return 0, err
	}

	incoming := task + " " + failure
	total := 0
	for _, entry := range m.Mistakes {
		remembered := entry.Task + " " + entry.Error
		if similarity.ScoreWithErrorType(incoming, remembered) >= similarity.MatchThreshold {
			total += entry.RecurrenceCount
		}
	}
	return total, nil
}

func preventionRule(category FailureCategory, task string) string {
	switch category {
	case CategoryValidation:
		return fmt.Sprintf("Validate inputs against schema constraints before executing: %s", task)
	case CategoryDependency:
		return fmt.Sprintf("Verify required modules and dependencies resolve before executing: %s", task)
	case CategoryType:
		return fmt.Sprintf("Check argument and return types at boundaries before executing: %s", task)
	case CategoryLogic:
		return fmt.Sprintf("Re-derive expected values and assert intermediate results for: %s", task)
	default:
		return fmt.Sprintf("Reproduce in isolation with diagnostic logging before retrying: %s", task)
	}
}

func suggestedTests(category FailureCategory) []string {
	switch category {
	case CategoryValidation:
		return []string{
			"reject malformed input at the boundary",
			"accept a known-good input unchanged",
		}
	case CategoryDependency:
		return []string{
			"resolve every declared dependency in a clean environment",
			"fail fast with a clear message when a dependency is missing",
		}
	case CategoryType:
		return []string{
			"exercise each public function with boundary-type arguments",
			"round-trip values through the conversion layer",
		}
	case CategoryLogic:
		return []string{
			"assert expected outputs for representative inputs",
			"cover the edge cases around empty and single-element inputs",
		}
	default:
		return []string{
			"reproduce the failure in a minimal harness",
		}
	}
}
