package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"strengths-service/internal/domain"
	"strengths-service/internal/observability"
	"strengths-service/internal/scoring"
)

// ErrNoResults is returned when a user has nothing to report yet.
var ErrNoResults = errors.New("no results to display")

// AssessmentService is the submission gateway: it scores responses
// authoritatively and persists them.
type AssessmentService struct {
	results ResultRepository
	now     func() time.Time
	newID   func() string
}

// AssessmentOption customises an AssessmentService.
type AssessmentOption func(*AssessmentService)

// WithClock sets the source of submission timestamps.
func WithClock(now func() time.Time) AssessmentOption {
	return func(s *AssessmentService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAssessmentService(results ResultRepository, opts ...AssessmentOption) *AssessmentService {
	s := &AssessmentService{results: results, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitAnonymous stores responses without an identity and returns the tempId
// that registration or login can later exchange for ownership.
func (s *AssessmentService) SubmitAnonymous(ctx context.Context, responses []domain.Answer) (string, error) {
	tempID := s.newID()
	if err := s.persist(ctx, responses, "", tempID, time.Time{}); err != nil {
		return "", err
	}
	return tempID, nil
}

// Submit stores responses against the caller's identity.
func (s *AssessmentService) Submit(ctx context.Context, identity domain.Identity, responses []domain.Answer) error {
	return s.persist(ctx, responses, identity.UserID, "", time.Time{})
}

// SaveResults stores a retake with a caller-supplied date; scores are recomputed.
func (s *AssessmentService) SaveResults(ctx context.Context, identity domain.Identity, responses []domain.Answer, date time.Time) error {
	return s.persist(ctx, responses, identity.UserID, "", date)
}

// PreviousResults lists the caller's results newest first.
func (s *AssessmentService) PreviousResults(ctx context.Context, identity domain.Identity) ([]domain.Result, error) {
	results, err := s.results.ListResultsByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		results = []domain.Result{}
	}
	return results, nil
}

// LatestReport presents the newest result with progress since the one before.
func (s *AssessmentService) LatestReport(ctx context.Context, identity domain.Identity) (scoring.Report, error) {
	results, err := s.PreviousResults(ctx, identity)
	if err != nil {
		return scoring.Report{}, err
	}
	if len(results) == 0 {
		return scoring.Report{}, ErrNoResults
	}
	var previous *domain.Result
	if len(results) > 1 {
		previous = &results[1]
	}
	return scoring.ReportFor(results[0], previous), nil
}

func (s *AssessmentService) persist(ctx context.Context, responses []domain.Answer, userID, tempID string, date time.Time) error {
	if err := domain.ValidateResponses(responses); err != nil {
		return err
	}
	if date.IsZero() {
		date = s.now()
	}
	summary := scoring.Score(responses)
	result := domain.Result{
		ID:           s.newID(),
		UserID:       userID,
		TempID:       tempID,
		Responses:    responses,
		DomainScores: summary.DomainScores,
		TotalScore:   summary.TotalScore,
		Date:         date.UTC(),
	}
	if err := s.results.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("result saved",
		"result_id", result.ID,
		"anonymous", userID == "",
		"responses", len(responses),
		"total_score", result.TotalScore,
	)
	return nil
}
