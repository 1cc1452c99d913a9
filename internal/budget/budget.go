// Package budget provides complexity-tiered token budgets for task
// execution. A budget is allocated up front from the task's complexity
// tier and drawn down as operations consume tokens.
package budget

import (
	"fmt"
	"sync"
)

// Complexity is a coarse task complexity tier.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Limits maps each complexity tier to its token budget.
var Limits = map[Complexity]int{
	Simple:  200,
	Medium:  1000,
	Complex: 2500,
}

// DefaultComplexity is used when the caller does not know the tier.
const DefaultComplexity = Medium

// TokenBudget tracks token consumption against a tier limit. Thread-safe.
type TokenBudget struct {
	mu         sync.Mutex
	complexity Complexity
	limit      int
	used       int
}

// NewTokenBudget creates a budget for the given tier. Unknown tiers fall
// back to DefaultComplexity.
func NewTokenBudget(c Complexity) *TokenBudget {
	limit, ok := Limits[c]
	if !ok {
		c = DefaultComplexity
		limit = Limits[c]
	}
	return &TokenBudget{
		complexity: c,
		limit:      limit,
	}
}

// Complexity returns the budget's tier.
func (b *TokenBudget) Complexity() Complexity {
	return b.complexity
}

// Limit returns the total token budget.
func (b *TokenBudget) Limit() int {
	return b.limit
}

// Allocate draws tokens from the budget. An allocation exceeding the
// remaining budget is rejected without partial effect.
func (b *TokenBudget) Allocate(tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("cannot allocate negative tokens (%d)", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used+tokens > b.limit {
		return fmt.Errorf("allocation of %d tokens exceeds remaining budget (%d of %d left)",
			tokens, b.limit-b.used, b.limit)
	}
	b.used += tokens
	return nil
}

// Use is an alias for Allocate.
func (b *TokenBudget) Use(tokens int) error {
	return b.Allocate(tokens)
}

// Used returns the tokens consumed so far.
func (b *TokenBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the tokens still available.
func (b *TokenBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit - b.used
}

// Reset returns the budget to its full limit. Resetting an untouched
// budget is a no-op.
func (b *TokenBudget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
}

// ComplexityForTaskCount derives a tier from the number of operations in a
// batch: a single operation is simple, small batches are medium, anything
// larger is complex.
func ComplexityForTaskCount(n int) Complexity {
	switch {
	case n <= 1:
		return Simple
	case n <= 3:
		return Medium
	default:
		return Complex
	}
}
