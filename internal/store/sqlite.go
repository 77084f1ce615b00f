package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/procrastinemon/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// Immediate transactions take the write lock up front, so concurrent
	// read-modify-write sequences on the same database serialize.
	dsn := dbPath + "?_txlock=immediate&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id             TEXT PRIMARY KEY,
		user_xp        INTEGER NOT NULL DEFAULT 0,
		demon_xp       INTEGER NOT NULL DEFAULT 0,
		current_streak INTEGER NOT NULL DEFAULT 0,
		current_form   TEXT NOT NULL DEFAULT 'basic',
		updated_at     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goal_sets (
		user_id    TEXT NOT NULL,
		date       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS goals (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		date       TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		text       TEXT NOT NULL,
		completed  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (user_id, date) REFERENCES goal_sets(user_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user_date ON goals(user_id, date, seq);

	CREATE TABLE IF NOT EXISTS resolutions (
		user_id           TEXT NOT NULL,
		date              TEXT NOT NULL,
		completed_goals   INTEGER NOT NULL,
		total_goals       INTEGER NOT NULL,
		user_xp_increase  INTEGER NOT NULL,
		demon_xp_increase INTEGER NOT NULL,
		category          TEXT NOT NULL,
		user_xp           INTEGER NOT NULL,
		demon_xp          INTEGER NOT NULL,
		current_streak    INTEGER NOT NULL,
		current_form      TEXT NOT NULL,
		resolved_at       TEXT NOT NULL,
		PRIMARY KEY (user_id, date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// unavailable marks a driver failure so callers can match ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *SQLiteStore) LoadState(ctx context.Context, userID string) (model.ProgressionState, error) {
	return loadState(ctx, s.db, userID)
}

func loadState(ctx context.Context, q queryer, userID string) (model.ProgressionState, error) {
	var st model.ProgressionState
	var form string
	err := q.QueryRowContext(ctx,
		`SELECT user_xp, demon_xp, current_streak, current_form FROM users WHERE id = ?`,
		userID).Scan(&st.UserXP, &st.DemonXP, &st.CurrentStreak, &form)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewProgressionState(), nil
	}
	if err != nil {
		return st, unavailable("load state", err)
	}
	st.CurrentForm = model.Form(form)
	if st.CurrentForm == "" {
		st.CurrentForm = model.FormBasic
	}
	return st, nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, userID string, st model.ProgressionState) error {
	if _, err := s.db.ExecContext(ctx, upsertStateSQL, stateArgs(userID, st)...); err != nil {
		return unavailable("save state", err)
	}
	return nil
}

const upsertStateSQL = `INSERT INTO users (id, user_xp, demon_xp, current_streak, current_form, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_xp = excluded.user_xp,
		demon_xp = excluded.demon_xp,
		current_streak = excluded.current_streak,
		current_form = excluded.current_form,
		updated_at = excluded.updated_at`

func stateArgs(userID string, st model.ProgressionState) []interface{} {
	form := st.CurrentForm
	if form == "" {
		form = model.FormBasic
	}
	return []interface{}{userID, st.UserXP, st.DemonXP, st.CurrentStreak, string(form),
		time.Now().UTC().Format(time.RFC3339)}
}

func (s *SQLiteStore) LoadGoalSet(ctx context.Context, userID, date string) (model.GoalSet, error) {
	return loadGoalSet(ctx, s.db, userID, date)
}

func loadGoalSet(ctx context.Context, q queryer, userID, date string) (model.GoalSet, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM goal_sets WHERE user_id = ? AND date = ?`, userID, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal set %s/%s: %w", userID, date, ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("load goal set", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, text, completed FROM goals WHERE user_id = ? AND date = ? ORDER BY seq`,
		userID, date)
	if err != nil {
		return nil, unavailable("load goals", err)
	}
	defer rows.Close()

	goals := model.GoalSet{}
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.ID, &g.Text, &g.Completed); err != nil {
			return nil, unavailable("scan goal", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("load goals", err)
	}
	return goals, nil
}

func (s *SQLiteStore) CreateGoalSet(ctx context.Context, userID, date string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO goal_sets (user_id, date, created_at) VALUES (?, ?, ?)`,
		userID, date, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return unavailable("create goal set", err)
	}
	return nil
}

func (s *SQLiteStore) AddGoal(ctx context.Context, userID, date, text string) (*model.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: goal can't be empty", ErrInvalidGoal)
	}
	if n := utf8.RuneCountInString(text); n > model.MaxGoalTextLen {
		return nil, fmt.Errorf("%w: %d characters, max %d", ErrGoalTooLong, n, model.MaxGoalTextLen)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer tx.Rollback()

	if err := checkOpen(ctx, tx, userID, date); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO goal_sets (user_id, date, created_at) VALUES (?, ?, ?)`,
		userID, date, now)
	if err != nil {
		return nil, unavailable("create goal set", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM goals WHERE user_id = ? AND date = ?`, userID, date).Scan(&count)
	if err != nil {
		return nil, unavailable("count goals", err)
	}
	if count >= model.MaxGoalsPerDay {
		return nil, ErrGoalLimit
	}

	g := &model.Goal{ID: s.newID(), Text: text}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, date, seq, text, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		g.ID, userID, date, count, g.Text, now)
	if err != nil {
		return nil, unavailable("insert goal", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit", err)
	}
	return g, nil
}

func (s *SQLiteStore) ToggleGoal(ctx context.Context, userID, date, goalID string) (*model.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	defer tx.Rollback()

	if err := checkOpen(ctx, tx, userID, date); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE goals SET completed = 1 - completed WHERE id = ? AND user_id = ? AND date = ?`,
		goalID, userID, date)
	if err != nil {
		return nil, unavailable("toggle goal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}

	g := &model.Goal{ID: goalID}
	err = tx.QueryRowContext(ctx,
		`SELECT text, completed FROM goals WHERE id = ?`, goalID).Scan(&g.Text, &g.Completed)
	if err != nil {
		return nil, unavailable("read goal", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit", err)
	}
	return g, nil
}

// checkOpen fails with ErrAlreadyResolved once a resolution marker exists.
func checkOpen(ctx context.Context, tx *sql.Tx, userID, date string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM resolutions WHERE user_id = ? AND date = ?`, userID, date).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return unavailable("check resolution", err)
	default:
		return ErrAlreadyResolved
	}
}

func (s *SQLiteStore) ResolveDay(ctx context.Context, userID, date string, fn ResolveFunc) (model.ResolutionResult, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ResolutionResult{}, false, unavailable("begin", err)
	}
	defer tx.Rollback()

	goals, err := loadGoalSet(ctx, tx, userID, date)
	if err != nil {
		return model.ResolutionResult{}, false, err
	}

	prev, err := scanResolution(tx.QueryRowContext(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE user_id = ? AND date = ?`, userID, date))
	switch {
	case err == nil:
		return prev, true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return model.ResolutionResult{}, false, unavailable("check resolution", err)
	}

	prior, err := loadState(ctx, tx, userID)
	if err != nil {
		return model.ResolutionResult{}, false, err
	}

	next, res, err := fn(prior, goals)
	if err != nil {
		return model.ResolutionResult{}, false, err
	}

	now := time.Now().UTC()
	res.Date = date
	res.State = next
	res.ResolvedAt = &now

	if _, err := tx.ExecContext(ctx, upsertStateSQL, stateArgs(userID, next)...); err != nil {
		return model.ResolutionResult{}, false, unavailable("save state", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO resolutions (user_id, date, completed_goals, total_goals, user_xp_increase,
			demon_xp_increase, category, user_xp, demon_xp, current_streak, current_form, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, date, res.CompletedGoals, res.TotalGoals, res.UserXPIncrease,
		res.DemonXPIncrease, string(res.Category), next.UserXP, next.DemonXP,
		next.CurrentStreak, string(next.CurrentForm), now.Format(time.RFC3339))
	if err != nil {
		return model.ResolutionResult{}, false, unavailable("record resolution", err)
	}

	if err := tx.Commit(); err != nil {
		return model.ResolutionResult{}, false, unavailable("commit", err)
	}
	return res, false, nil
}

func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]model.ResolutionResult, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE user_id = ?
		 ORDER BY date DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, unavailable("history", err)
	}
	defer rows.Close()

	results := []model.ResolutionResult{}
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, unavailable("scan resolution", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const resolutionColumns = `date, completed_goals, total_goals, user_xp_increase, demon_xp_increase,
	category, user_xp, demon_xp, current_streak, current_form, resolved_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResolution(row scanner) (model.ResolutionResult, error) {
	var r model.ResolutionResult
	var category, form, resolvedAt string

	err := row.Scan(
		&r.Date, &r.CompletedGoals, &r.TotalGoals, &r.UserXPIncrease, &r.DemonXPIncrease,
		&category, &r.State.UserXP, &r.State.DemonXP, &r.State.CurrentStreak, &form, &resolvedAt,
	)
	if err != nil {
		return r, err
	}

	r.MissedGoals = r.TotalGoals - r.CompletedGoals
	r.Category = model.Category(category)
	r.State.CurrentForm = model.Form(form)
	if t, err := time.Parse(time.RFC3339, resolvedAt); err == nil {
		r.ResolvedAt = &t
	}
	return r, nil
}
