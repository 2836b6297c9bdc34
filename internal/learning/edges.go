package learning

// Source types of ledger edges.
const (
	SourceDecision  = "decision"
	SourceSignal    = "signal"
	SourceObjective = "objective"
)

// TargetRecommendation is the only target type edges point at.
const TargetRecommendation = "recommendation"

const (
	maxSignalKeyRunes    = 50
	maxObjectiveKeyRunes = 200
	trajectoryPrefix     = "trajectory:"
	patternPrefix        = "pattern:"
)

// EdgeKey identifies one weight ledger row.
type EdgeKey struct {
	SourceType  string
	SourceID    string
	TargetType  string
	TargetValue string
}

// Signals are the three categorical assessments attached to a decision.
type Signals struct {
	Financial  string
	Risk       string
	Complexity string
}

// EdgeSource is the slice of a decision that edge derivation needs.
type EdgeSource struct {
	DecisionID     string
	Objective      string
	Recommendation string
	Signals        Signals
}

// DeriveEdges returns every edge an approval on the given decision touches,
// in a fixed order: the decision edge, one edge per signal field, the
// objective edge and the trajectory edge. An empty signal still gets its
// "<type>:" edge, so every approval touches exactly six rows.
// Signal and objective keys are content-derived so repeated approvals on
// similar text reinforce the same row.
func DeriveEdges(src EdgeSource) []EdgeKey {
	rt := string(ExtractRecommendationType(src.Recommendation))
	edges := make([]EdgeKey, 0, 6)

	edges = append(edges, EdgeKey{SourceDecision, src.DecisionID, TargetRecommendation, rt})

	for _, sig := range []struct{ name, text string }{
		{"financial", src.Signals.Financial},
		{"risk", src.Signals.Risk},
		{"complexity", src.Signals.Complexity},
	} {
		edges = append(edges, EdgeKey{SourceSignal, SignalKey(sig.name, sig.text), TargetRecommendation, rt})
	}

	edges = append(edges, EdgeKey{SourceObjective, ObjectiveKey(src.Objective), TargetRecommendation, rt})

	edges = append(edges, EdgeKey{SourceDecision, TrajectoryKey(src.DecisionID), TargetRecommendation, PatternValue(rt)})
	return edges
}

// SignalKey is "<signalType>:<first 50 runes of text>".
func SignalKey(signalType, text string) string {
	return signalType + ":" + truncateRunes(text, maxSignalKeyRunes)
}

// ObjectiveKey is the first 200 runes of the objective.
func ObjectiveKey(objective string) string {
	return truncateRunes(objective, maxObjectiveKeyRunes)
}

// TrajectoryKey is the source id of a decision's trajectory edge.
func TrajectoryKey(decisionID string) string {
	return trajectoryPrefix + decisionID
}

// PatternValue is the target value of a trajectory edge.
func PatternValue(recommendationType string) string {
	return patternPrefix + recommendationType
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
