package memory

import (
	"context"
	"sort"
	"sync"

	"strengths-service/internal/domain"
)

// ResultStore keeps results in process memory.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, cloneResult(result))
	return nil
}

func (s *ResultStore) ListResultsByUser(_ context.Context, userID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Result
	for _, r := range s.results {
		if r.UserID == userID {
			out = append(out, cloneResult(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *ResultStore) AttachTempID(_ context.Context, tempID, userID string) (int64, error) {
	if tempID == "" {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.results {
		if s.results[i].TempID == tempID {
			s.results[i].UserID = userID
			s.results[i].TempID = ""
			n++
		}
	}
	return n, nil
}

func cloneResult(r domain.Result) domain.Result {
	r.Responses = append([]domain.Answer(nil), r.Responses...)
	scores := make(map[string]int, len(r.DomainScores))
	for k, v := range r.DomainScores {
		scores[k] = v
	}
	r.DomainScores = scores
	return r
}
