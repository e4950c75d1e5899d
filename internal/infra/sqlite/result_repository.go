package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"strengths-service/internal/domain"
)

// ResultRepository implements app.ResultRepository using SQLite.
// Responses and domain scores are stored as JSON text; dates as Unix
// microseconds, which cover every RFC 3339 year.
type ResultRepository struct {
	db *Database
}

func NewResultRepository(db *Database) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) SaveResult(ctx context.Context, result domain.Result) error {
	responses, err := json.Marshal(result.Responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}
	scores, err := json.Marshal(result.DomainScores)
	if err != nil {
		return fmt.Errorf("failed to encode domain scores: %w", err)
	}

	query := `
		INSERT INTO results (id, user_id, temp_id, responses, domain_scores, total_score, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.db.ExecContext(ctx, query,
		result.ID,
		nullString(result.UserID),
		nullString(result.TempID),
		string(responses),
		string(scores),
		result.TotalScore,
		result.Date.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

func (r *ResultRepository) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	query := `
		SELECT id, user_id, temp_id, responses, domain_scores, total_score, date
		FROM results
		WHERE user_id = ?
		ORDER BY date DESC
	`
	rows, err := r.db.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var (
			result         domain.Result
			user, temp     sql.NullString
			responses, dss string
			date           int64
		)
		if err := rows.Scan(&result.ID, &user, &temp, &responses, &dss, &result.TotalScore, &date); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(responses), &result.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses: %w", err)
		}
		if err := json.Unmarshal([]byte(dss), &result.DomainScores); err != nil {
			return nil, fmt.Errorf("failed to decode domain scores: %w", err)
		}
		result.UserID = user.String
		result.TempID = temp.String
		result.Date = time.UnixMicro(date).UTC()
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *ResultRepository) AttachTempID(ctx context.Context, tempID, userID string) (int64, error) {
	if tempID == "" {
		return 0, nil
	}
	res, err := r.db.db.ExecContext(ctx,
		`UPDATE results SET user_id = ?, temp_id = NULL WHERE temp_id = ?`,
		userID, tempID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to attach results: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
