package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Users       int         `json:"users"`
	GoalSets    int         `json:"goal_sets"`
	Goals       int         `json:"goals"`
	Completed   int         `json:"completed_goals"`
	Resolutions int         `json:"resolutions"`
	Forms       []FormStats `json:"forms"`
}

// FormStats holds per-form user counts.
type FormStats struct {
	Form  string `json:"form"`
	Users int    `json:"users"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Users)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goal_sets`).Scan(&st.GoalSets)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals`).Scan(&st.Goals)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals WHERE completed = 1`).Scan(&st.Completed)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resolutions`).Scan(&st.Resolutions)

	rows, err := s.db.QueryContext(ctx, `
		SELECT current_form, COUNT(*) AS cnt
		FROM users GROUP BY current_form ORDER BY cnt DESC`)
	if err != nil {
		return st, unavailable("stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f FormStats
		rows.Scan(&f.Form, &f.Users)
		st.Forms = append(st.Forms, f)
	}

	return st, nil
}
