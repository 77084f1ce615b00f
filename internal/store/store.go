// Package store provides the progression storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/procrastinemon/internal/model"
)

var (
	// ErrNotFound is returned when a goal set or goal does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps transport and storage failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGoalLimit is returned when a day already holds MaxGoalsPerDay goals.
	ErrGoalLimit = errors.New("goal limit reached for today")

	// ErrAlreadyResolved is returned when mutating goals of a closed day.
	ErrAlreadyResolved = errors.New("day already resolved")

	// ErrInvalidGoal is returned for empty goal text.
	ErrInvalidGoal = errors.New("invalid goal text")

	// ErrGoalTooLong is returned when goal text exceeds MaxGoalTextLen characters.
	ErrGoalTooLong = errors.New("goal text too long")
)

// ResolveFunc computes the next state from the prior state and a day's goals.
// It must not have side effects; an error aborts the resolution unchanged.
type ResolveFunc func(prior model.ProgressionState, goals model.GoalSet) (model.ProgressionState, model.ResolutionResult, error)

// Store defines the progression storage interface.
type Store interface {
	// LoadState returns the user's progression, or the zero state if none exists.
	LoadState(ctx context.Context, userID string) (model.ProgressionState, error)

	// SaveState overwrites the user's progression.
	SaveState(ctx context.Context, userID string, st model.ProgressionState) error

	// LoadGoalSet returns the goals for a date. ErrNotFound if the day was never created.
	LoadGoalSet(ctx context.Context, userID, date string) (model.GoalSet, error)

	// CreateGoalSet creates an empty goal set for a date if missing.
	CreateGoalSet(ctx context.Context, userID, date string) error

	// AddGoal appends a goal to the date's set, creating the set if needed.
	AddGoal(ctx context.Context, userID, date, text string) (*model.Goal, error)

	// ToggleGoal flips the completion flag of a goal.
	ToggleGoal(ctx context.Context, userID, date, goalID string) (*model.Goal, error)

	// ResolveDay applies fn to the date's goal set and the prior state in one
	// transaction and records the result. A date that was already resolved
	// returns the recorded result with replayed=true and changes nothing.
	ResolveDay(ctx context.Context, userID, date string, fn ResolveFunc) (res model.ResolutionResult, replayed bool, err error)

	// History lists resolved days, newest first.
	History(ctx context.Context, userID string, limit int) ([]model.ResolutionResult, error)

	// Close closes the store.
	Close() error
}
