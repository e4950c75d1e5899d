package domain

import "time"

// Domains lists the trait categories questions are tagged with.
var Domains = []string{
	"leadership",
	"communication",
	"problem-solving",
	"creativity",
	"adaptability",
	"collaboration",
	"emotional-intelligence",
	"strategic-thinking",
}

// MinValue and MaxValue bound a Likert answer.
const (
	MinValue = 1
	MaxValue = 5
)

// Question is a single Likert statement tagged with a domain.
type Question struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Domain string `json:"domain"`
}

// QuestionPool is an ordered set of questions served to one questionnaire.
type QuestionPool struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Answer is the selected value for one question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Domain     string `json:"domain"`
	Value      int    `json:"value"`
}

// Result is the persisted, server-scored submission.
// Exactly one of UserID and TempID is meaningful.
type Result struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user,omitempty"`
	TempID       string         `json:"tempId,omitempty"`
	Responses    []Answer       `json:"responses"`
	DomainScores map[string]int `json:"domainScores"`
	TotalScore   float64        `json:"totalScore"`
	Date         time.Time      `json:"date"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the authenticated caller derived from a bearer credential.
type Identity struct {
	UserID   string
	Username string
	TokenID  string
	Expires  time.Time
}
