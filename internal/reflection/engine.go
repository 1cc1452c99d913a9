// Package reflection scores tasks for execution confidence before any
// operation runs. Three weighted factors feed the gate: how clearly the
// task is described, whether similar past mistakes are on record, and how
// much workspace context is available.
package reflection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/preflight/internal/correction"
)

// Scoring tunables. Weights must sum to 1.0.
const (
	WeightClarity  = 0.35
	WeightMistakes = 0.35
	WeightContext  = 0.30

	// ConfidenceThreshold is the minimum aggregate score at which
	// execution proceeds.
	ConfidenceThreshold = 0.70

	// factorPassBar is the per-factor score below which a factor becomes
	// a blocker.
	factorPassBar = 0.5

	// noContextScore is the fixed context score when no context is
	// provided at all.
	noContextScore = 0.3

	clarityBase          = 0.5
	specificVerbBonus    = 0.2
	vagueVerbPenalty     = 0.2
	technicalNounBonus   = 0.15
	brevityPenalty       = 0.15
	minDescriptionLength = 20

	mistakePenalty    = 0.25
	mistakeScoreFloor = 0.2
	contextCheckValue = 0.25
)

// ProjectIndexFile is the workspace index consulted as a context signal.
const ProjectIndexFile = "PROJECT_INDEX.md"

var specificVerbs = []string{
	"add", "create", "delete", "extract", "fix", "implement", "move",
	"refactor", "remove", "rename", "replace", "update",
}

var vagueVerbs = []string{
	"cleanup", "enhance", "handle", "improve", "optimize", "support",
}

var technicalNouns = []string{
	"api", "cache", "class", "config", "database", "endpoint", "error",
	"file", "function", "log", "method", "module", "parser", "test",
}

// Context carries workspace facts the caller already knows. A nil Context
// is valid and scores as having no information.
type Context struct {
	ProjectIndex  string // summary of the project structure, if available
	CurrentBranch string
	GitStatus     string
}

// FactorScore is one factor's contribution to an assessment.
type FactorScore struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	Evidence []string `json:"evidence,omitempty"`
	Concerns []string `json:"concerns,omitempty"`
}

// Assessment is the result of reflecting on a task.
type Assessment struct {
	Task            string        `json:"task"`
	Score           float64       `json:"score"`
	ShouldProceed   bool          `json:"should_proceed"`
	Factors         []FactorScore `json:"factors"`
	Blockers        []string      `json:"blockers,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// MistakeChecker is the slice of the self-correction engine the reflector
// consults. A nil checker scores the mistake factor as clean.
type MistakeChecker interface {
	CheckAgainstPastMistakes(task string) ([]correction.FailureEntry, error)
}

// Logger is the minimal logging surface the engine needs. A nil Logger
// disables logging.
type Logger interface {
	LogWarn(message string)
}

// Engine performs confidence assessments.
type Engine struct {
	checker   MistakeChecker
	workDir   string
	logDir    string
	threshold float64
	logger    Logger
}

// NewEngine creates a reflection engine. workDir is scanned for the project
// index file; logDir receives the reflection log. Both the checker and
// logger are optional.
func NewEngine(checker MistakeChecker, workDir, logDir string, logger Logger) *Engine {
	return &Engine{
		checker:   checker,
		workDir:   workDir,
		logDir:    logDir,
		threshold: ConfidenceThreshold,
		logger:    logger,
	}
}

// SetThreshold overrides the confidence gate. Values outside (0, 1] are
// ignored.
func (e *Engine) SetThreshold(threshold float64) {
	if threshold > 0 && threshold <= 1 {
		e.threshold = threshold
	}
}

// Threshold returns the active confidence gate.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Reflect scores a task against the three factors and decides whether
// execution should proceed, gated by the engine's configured threshold.
func (e *Engine) Reflect(task string, ctx *Context) *Assessment {
	return e.ReflectAt(task, ctx, e.threshold)
}

// ReflectAt is Reflect with a caller-supplied gate. The engine's own
// threshold is untouched, so concurrent callers can apply different gates
// to the same engine. Thresholds outside (0, 1] fall back to the
// configured one.
func (e *Engine) ReflectAt(task string, ctx *Context, threshold float64) *Assessment {
	if threshold <= 0 || threshold > 1 {
		threshold = e.threshold
	}

	clarity := e.assessClarity(task)
	mistakes := e.assessMistakes(task)
	workspace := e.assessContext(ctx)

	factors := []FactorScore{clarity, mistakes, workspace}

	score := 0.0
	for _, f := range factors {
		score += f.Score * f.Weight
	}

	a := &Assessment{
		Task:          task,
		Score:         score,
		ShouldProceed: score >= threshold,
		Factors:       factors,
	}

	for _, f := range factors {
		if f.Score < factorPassBar {
			a.Blockers = append(a.Blockers, fmt.Sprintf("low %s confidence (%.2f)", f.Name, f.Score))
		}
		for _, c := range f.Concerns {
			a.Recommendations = append(a.Recommendations, recommendationFor(f.Name, c))
		}
	}

	return a
}

// assessClarity scores how actionable the task description is. The score
// starts at a neutral base and moves with verb specificity, technical
// vocabulary and length.
func (e *Engine) assessClarity(task string) FactorScore {
	f := FactorScore{Name: "clarity", Weight: WeightClarity, Score: clarityBase}
	lower := strings.ToLower(task)
	words := strings.Fields(lower)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[strings.Trim(w, ".,:;!?")] = true
	}

	if containsAny(wordSet, specificVerbs) {
		f.Score += specificVerbBonus
		f.Evidence = append(f.Evidence, "uses a specific action verb")
	}
	if containsAny(wordSet, vagueVerbs) {
		f.Score -= vagueVerbPenalty
		f.Concerns = append(f.Concerns, "vague action verb")
	}
	if containsAny(wordSet, technicalNouns) {
		f.Score += technicalNounBonus
		f.Evidence = append(f.Evidence, "names a concrete technical target")
	}
	if len(task) < minDescriptionLength {
		f.Score -= brevityPenalty
		f.Concerns = append(f.Concerns, "description is brief")
	}

	f.Score = clamp(f.Score)
	return f
}

// assessMistakes scores against the mistake memory. No recorded similar
// mistakes is full confidence; each match lowers the score down to a floor.
func (e *Engine) assessMistakes(task string) FactorScore {
	f := FactorScore{Name: "mistakes", Weight: WeightMistakes, Score: 1.0}

	if e.checker == nil {
		f.Evidence = append(f.Evidence, "no mistake memory configured")
		return f
	}

	matches, err := e.checker.CheckAgainstPastMistakes(task)
	if err != nil {
		if e.logger != nil {
			e.logger.LogWarn(fmt.Sprintf("mistake check failed: %v", err))
		}
		f.Evidence = append(f.Evidence, "mistake memory unavailable")
		return f
	}

	if len(matches) == 0 {
		f.Evidence = append(f.Evidence, "no similar past mistakes")
		return f
	}

	f.Score = 1.0 - mistakePenalty*float64(len(matches))
	if f.Score < mistakeScoreFloor {
		f.Score = mistakeScoreFloor
	}
	for _, m := range matches {
		f.Concerns = append(f.Concerns, fmt.Sprintf("similar past failure (%s): %s", m.Category, m.PreventionRule))
	}
	return f
}

// assessContext scores the available workspace context. Four signals count
// equally: a project index summary, the current branch, git status, and a
// project index file on disk.
func (e *Engine) assessContext(ctx *Context) FactorScore {
	f := FactorScore{Name: "context", Weight: WeightContext}

	if ctx == nil {
		f.Score = noContextScore
		f.Concerns = append(f.Concerns, "no context provided")
		return f
	}

	if ctx.ProjectIndex != "" {
		f.Score += contextCheckValue
		f.Evidence = append(f.Evidence, "project index summary available")
	} else {
		f.Concerns = append(f.Concerns, "missing project index summary")
	}

	if ctx.CurrentBranch != "" {
		f.Score += contextCheckValue
		f.Evidence = append(f.Evidence, fmt.Sprintf("on branch %s", ctx.CurrentBranch))
	} else {
		f.Concerns = append(f.Concerns, "current branch unknown")
	}

	if ctx.GitStatus != "" {
		f.Score += contextCheckValue
		f.Evidence = append(f.Evidence, "working tree status known")
	} else {
		f.Concerns = append(f.Concerns, "working tree status unknown")
	}

	if e.hasProjectIndexFile() {
		f.Score += contextCheckValue
		f.Evidence = append(f.Evidence, ProjectIndexFile+" present")
	} else {
		f.Concerns = append(f.Concerns, ProjectIndexFile+" not found")
	}

	f.Score = clamp(f.Score)
	return f
}

func (e *Engine) hasProjectIndexFile() bool {
	if e.workDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(e.workDir, ProjectIndexFile))
	return err == nil && !info.IsDir()
}

func recommendationFor(factor, concern string) string {
	switch factor {
	case "clarity":
		return fmt.Sprintf("rephrase the task (%s)", concern)
	case "mistakes":
		return fmt.Sprintf("review before executing: %s", concern)
	default:
		return fmt.Sprintf("provide more context (%s)", concern)
	}
}

func containsAny(wordSet map[string]bool, candidates []string) bool {
	for _, c := range candidates {
		if wordSet[c] {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
