package store

import (
	"context"

	"github.com/rcliao/procrastinemon/internal/model"
)

// GoalDocument is one day's goals in the users/{id}/goals/{date} shape.
type GoalDocument struct {
	Goals model.GoalSet `json:"goals"`
}

// UserDocument is a user's progression plus every goal document, keyed by date.
type UserDocument struct {
	ID string `json:"id"`
	model.ProgressionState
	Goals map[string]GoalDocument `json:"goals"`
}

// ExportUser returns the user's documents. Users without any data export the
// zero state and an empty goal map.
func (s *SQLiteStore) ExportUser(ctx context.Context, userID string) (*UserDocument, error) {
	st, err := s.LoadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc := &UserDocument{ID: userID, ProgressionState: st, Goals: map[string]GoalDocument{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM goal_sets WHERE user_id = ? ORDER BY date`, userID)
	if err != nil {
		return nil, unavailable("export", err)
	}
	dates, err := collectDates(rows)
	if err != nil {
		return nil, unavailable("export", err)
	}

	for _, d := range dates {
		goals, err := s.LoadGoalSet(ctx, userID, d)
		if err != nil {
			return nil, err
		}
		doc.Goals[d] = GoalDocument{Goals: goals}
	}
	return doc, nil
}

type rowIter interface {
	scanner
	Next() bool
	Err() error
	Close() error
}

// collectDates drains rows of single date columns and closes them.
func collectDates(rows rowIter) ([]string, error) {
	defer rows.Close()
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
