// Package similarity provides lexical comparison of task and failure
// descriptions. Scores are word-overlap based, cheap enough to run on every
// reflection pass, and deliberately favor recall over precision when
// matching new failures against remembered ones.
package similarity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MatchThreshold is the minimum score at which two descriptions are
	// considered to describe the same failure.
	MatchThreshold = 0.7

	// containmentScore is the floor applied when one normalized text
	// fully contains the other.
	containmentScore = 0.8

	// errorTypeBoost is added when both texts name the same error type.
	errorTypeBoost = 0.2

	// signatureLength is the number of hex characters kept from the
	// full digest when building a failure signature.
	signatureLength = 12
)

// errorTypes are categories recognized in failure messages. Sharing one is
// strong evidence two failures are related even when wording differs.
var errorTypes = []string{
	"assertion",
	"attribute",
	"import",
	"index",
	"key",
	"name",
	"permission",
	"timeout",
	"type",
	"validation",
	"value",
}

var digitRuns = regexp.MustCompile(`\d+`)

// Normalize lowercases text, collapses digit runs to "N" and squeezes
// whitespace. Line numbers, counts and ids vary between occurrences of the
// same failure, so they are erased before hashing or comparison.
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = digitRuns.ReplaceAllString(lower, "N")
	return strings.Join(strings.Fields(lower), " ")
}

// Tokenize splits text into a set of lowercase alphanumeric words.
func Tokenize(text string) map[string]bool {
	var cleaned strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteRune(' ')
		}
	}

	words := make(map[string]bool)
	for _, w := range strings.Fields(cleaned.String()) {
		words[w] = true
	}
	return words
}

// Score computes the lexical similarity of two texts in [0, 1]. The base
// score is the Jaccard overlap of their word sets; full containment of one
// normalized text in the other raises the score to at least
// containmentScore.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	wa, wb := Tokenize(na), Tokenize(nb)
	intersection := 0
	for w := range wa {
		if wb[w] {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	score := 0.0
	if union > 0 {
		score = float64(intersection) / float64(union)
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if score < containmentScore {
			score = containmentScore
		}
	}

	return score
}

// ScoreWithErrorType computes Score and adds errorTypeBoost when both texts
// mention the same error type, capped at 1.0.
func ScoreWithErrorType(a, b string) float64 {
	score := Score(a, b)

	la, lb := strings.ToLower(a), strings.ToLower(b)
	for _, et := range errorTypes {
		if strings.Contains(la, et) && strings.Contains(lb, et) {
			score += errorTypeBoost
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Matches reports whether two texts score at or above MatchThreshold.
func Matches(a, b string) bool {
	return ScoreWithErrorType(a, b) >= MatchThreshold
}

// Signature produces a stable short identifier for a failure from its
// parts (typically category, task description and error message). Parts
// are normalized first so reworded occurrences of the same failure hash
// identically.
func Signature(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = Normalize(p)
	}

	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])[:signatureLength]
}
