// Package learning holds the pure parts of approval learning: reward
// derivation, recommendation-type extraction and edge key derivation.
// Nothing here touches the store.
package learning

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// LearningRate is the EMA smoothing factor applied to every edge update.
const LearningRate = 0.1

// RecommendationType is the categorical leading token of a recommendation.
type RecommendationType string

const (
	Proceed RecommendationType = "PROCEED"
	Defer   RecommendationType = "DEFER"
	Reject  RecommendationType = "REJECT"
	Review  RecommendationType = "REVIEW"
	Halt    RecommendationType = "HALT"
	Unknown RecommendationType = "UNKNOWN"
)

var knownTypes = map[string]RecommendationType{
	"PROCEED": Proceed,
	"DEFER":   Defer,
	"REJECT":  Reject,
	"REVIEW":  Review,
	"HALT":    Halt,
}

// ExtractRecommendationType classifies a recommendation by its leading word.
// "proceed: ship it" and "PROCEED - ship it" are both PROCEED; anything whose
// first word is not a known type is UNKNOWN.
func ExtractRecommendationType(recommendation string) RecommendationType {
	s := strings.TrimLeftFunc(recommendation, unicode.IsSpace)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end >= 0 {
		s = s[:end]
	}
	if t, ok := knownTypes[strings.ToUpper(s)]; ok {
		return t
	}
	return Unknown
}

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateAdjustment checks that a confidence adjustment, when present, lies in [-1, 1].
func ValidateAdjustment(adjustment *float64) error {
	if adjustment == nil {
		return nil
	}
	a := *adjustment
	if math.IsNaN(a) || a < -1 || a > 1 {
		return &ValidationError{
			Field:   "confidence_adjustment",
			Message: fmt.Sprintf("%v outside [-1, 1]", a),
		}
	}
	return nil
}

// Reward maps an approval event to its scalar reward: +1 for approval, -1 for
// rejection, scaled by (1 + adjustment) when an adjustment is supplied.
// Callers validate the adjustment first; no clamping happens here.
func Reward(approved bool, adjustment *float64) float64 {
	reward := -1.0
	if approved {
		reward = 1.0
	}
	if adjustment != nil {
		reward *= 1 + *adjustment
	}
	if reward == 0 {
		return 0 // rejected with adjustment -1 yields -0
	}
	return reward
}
