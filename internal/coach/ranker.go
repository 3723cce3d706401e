package coach

import "sort"

// CandidateKind is the closed set of things the ranker can order.
type CandidateKind string

const (
	CandidateWorkout      CandidateKind = "workout"
	CandidateReminder     CandidateKind = "reminder"
	CandidatePlanProposal CandidateKind = "plan_proposal"
	CandidateWeightLog    CandidateKind = "weight_log"
)

// Candidate is a scoreable recommendation unit. The engine annotates
// Score and never mutates anything else; the candidate itself belongs
// to the caller's plan or profile.
type Candidate struct {
	ID              string        `json:"id"`
	Kind            CandidateKind `json:"kind"`
	Name            string        `json:"name"`
	ScheduledMinute int           `json:"scheduled_minute"`
	Score           float64       `json:"score"`
}

// ScoreFunc supplies the contextual fitness of a candidate. The ranker
// owes only stable ordering and a deterministic tie-break; what the
// score means (habit strength, muscle recovery) is the caller's policy.
type ScoreFunc func(Candidate) float64

// Rank scores every candidate and returns a new slice sorted
// descending by score. Ties break by earliest scheduled time, then
// lexicographic ID, so repeated calls over equal inputs agree.
func Rank(candidates []Candidate, score ScoreFunc) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	for i := range ranked {
		ranked[i].Score = score(ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].ScheduledMinute != ranked[j].ScheduledMinute {
			return ranked[i].ScheduledMinute < ranked[j].ScheduledMinute
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}

// BestOf selects the maximum-score candidate. When every score is
// equal the first candidate in input order wins. An empty input is not
// an error; found is false.
func BestOf(candidates []Candidate, score ScoreFunc) (best Candidate, found bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	best = candidates[0]
	best.Score = score(best)
	for _, c := range candidates[1:] {
		c.Score = score(c)
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
