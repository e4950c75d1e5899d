// Package questions loads question pools from JSON documents.
package questions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"strengths-service/internal/domain"
)

// DefaultPoolID names the pool shipped with the binary.
const DefaultPoolID = "default"

//go:embed default.json
var defaultPool []byte

// Default returns the embedded pool.
func Default() domain.QuestionPool {
	pool, err := Parse(defaultPool, DefaultPoolID)
	if err != nil {
		panic(fmt.Sprintf("embedded question pool: %v", err))
	}
	return pool
}

// LoadFile reads a pool document from disk. A bare array of questions is
// accepted as well as a {"id", "questions"} object; poolID fills a missing id.
func LoadFile(path, poolID string) (domain.QuestionPool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.QuestionPool{}, fmt.Errorf("read pool: %w", err)
	}
	return Parse(raw, poolID)
}

// Parse decodes and validates a pool document.
func Parse(raw []byte, poolID string) (domain.QuestionPool, error) {
	var pool domain.QuestionPool
	if err := json.Unmarshal(raw, &pool); err != nil {
		var list []domain.Question
		if listErr := json.Unmarshal(raw, &list); listErr != nil {
			return domain.QuestionPool{}, fmt.Errorf("decode pool: %w", err)
		}
		pool.Questions = list
	}
	if pool.ID == "" {
		pool.ID = poolID
	}
	if err := Validate(pool); err != nil {
		return domain.QuestionPool{}, err
	}
	return pool, nil
}

// Validate checks ids are unique and every question has text and a domain.
func Validate(pool domain.QuestionPool) error {
	if pool.ID == "" {
		return domain.Invalidf("pool id is required")
	}
	seen := make(map[string]struct{}, len(pool.Questions))
	for i, q := range pool.Questions {
		if q.ID == "" {
			return domain.Invalidf("question %d has no id", i)
		}
		if q.Text == "" || q.Domain == "" {
			return domain.Invalidf("question %q needs text and domain", q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return domain.Invalidf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}
