package scoring

import (
	"sort"
	"time"

	"strengths-service/internal/domain"
)

// DomainReport is one ranked line of a results report.
type DomainReport struct {
	Domain         string  `json:"domain"`
	Score          int     `json:"score"`
	Questions      int     `json:"questions"`
	Percentage     float64 `json:"percentage"`
	Band           Band    `json:"band"`
	Interpretation string  `json:"interpretation"`
}

// Report is the presentation-ready view of a result.
type Report struct {
	Domains    []DomainReport `json:"domains"`
	TotalScore float64        `json:"totalScore"`
	Date       time.Time      `json:"date,omitempty"`
	// Progress is the change in total score since the previous result, if any.
	Progress *float64 `json:"progress,omitempty"`
}

// BuildReport ranks domains by percentage, highest first.
func BuildReport(responses []domain.Answer) Report {
	counts := make(map[string]int)
	for _, r := range responses {
		counts[r.Domain]++
	}
	scores := DomainScores(responses)

	domains := make([]DomainReport, 0, len(scores))
	for d, score := range scores {
		pct := Percentage(score, counts[d])
		band := BandFor(pct)
		domains = append(domains, DomainReport{
			Domain:         d,
			Score:          score,
			Questions:      counts[d],
			Percentage:     pct,
			Band:           band,
			Interpretation: Interpret(d, band),
		})
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Percentage != domains[j].Percentage {
			return domains[i].Percentage > domains[j].Percentage
		}
		return domains[i].Domain < domains[j].Domain
	})

	return Report{Domains: domains, TotalScore: TotalScore(responses)}
}

// ReportFor builds the report of latest and, when previous is set, the progress since it.
func ReportFor(latest domain.Result, previous *domain.Result) Report {
	report := BuildReport(latest.Responses)
	report.TotalScore = Round2(latest.TotalScore)
	report.Date = latest.Date
	if previous != nil {
		delta := Round2(latest.TotalScore - previous.TotalScore)
		report.Progress = &delta
	}
	return report
}
