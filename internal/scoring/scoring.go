// Package scoring turns a finalized response set into domain and overall scores.
// The same functions back the preview shown on completion and the persisted score.
package scoring

import (
	"math"

	"strengths-service/internal/domain"
)

// Band is a proficiency level derived from a domain percentage.
type Band string

const (
	Novice       Band = "Novice"
	Beginner     Band = "Beginner"
	Intermediate Band = "Intermediate"
	Proficient   Band = "Proficient"
	Expert       Band = "Expert"
)

// Summary is the authoritative score of a response set.
type Summary struct {
	DomainScores map[string]int `json:"domainScores"`
	TotalScore   float64        `json:"totalScore"`
}

// Score sums values per domain and computes the overall percentage.
// Missing values (0) contribute nothing but still count toward the maximum.
func Score(responses []domain.Answer) Summary {
	return Summary{
		DomainScores: DomainScores(responses),
		TotalScore:   TotalScore(responses),
	}
}

// DomainScores returns the sum of values per domain.
func DomainScores(responses []domain.Answer) map[string]int {
	scores := make(map[string]int)
	for _, r := range responses {
		scores[r.Domain] += r.Value
	}
	return scores
}

// TotalScore returns sum(values) / (len × 5) × 100 with two-decimal precision.
func TotalScore(responses []domain.Answer) float64 {
	if len(responses) == 0 {
		return 0
	}
	sum := 0
	for _, r := range responses {
		sum += r.Value
	}
	return Round2(float64(sum) / float64(len(responses)*domain.MaxValue) * 100)
}

// DomainPercentages returns each domain's share of its maximum possible score.
func DomainPercentages(responses []domain.Answer) map[string]float64 {
	counts := make(map[string]int)
	for _, r := range responses {
		counts[r.Domain]++
	}
	out := make(map[string]float64, len(counts))
	for d, score := range DomainScores(responses) {
		out[d] = Percentage(score, counts[d])
	}
	return out
}

// Percentage converts a domain sum over n questions into a percentage.
func Percentage(score, questions int) float64 {
	if questions <= 0 {
		return 0
	}
	return Round2(float64(score) / float64(questions*domain.MaxValue) * 100)
}

// BandFor maps a percentage onto the half-open band intervals.
func BandFor(p float64) Band {
	switch {
	case p >= 80:
		return Expert
	case p >= 60:
		return Proficient
	case p >= 40:
		return Intermediate
	case p >= 20:
		return Beginner
	default:
		return Novice
	}
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
