// Package service orchestrates goal tracking and day resolution for a user.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/procrastinemon/internal/feedback"
	"github.com/rcliao/procrastinemon/internal/lock"
	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/model"
	"github.com/rcliao/procrastinemon/internal/resolver"
	"github.com/rcliao/procrastinemon/internal/store"
)

// Outcome is what a resolution returns to the caller.
type Outcome struct {
	Stats     model.ProgressionState `json:"stats"`
	Message   string                 `json:"message"`
	Generated bool                   `json:"-"`
	Replayed  bool                   `json:"-"`
	Result    model.ResolutionResult `json:"-"`
}

// Days serves one user's daily goals and resolutions.
type Days struct {
	store    store.Store
	locker   lock.Locker
	renderer *feedback.Renderer
	now      func() time.Time
	log      *logger.Logger
}

// Option customizes Days.
type Option func(*Days)

// WithClock overrides the time source used to pick "today".
func WithClock(now func() time.Time) Option {
	return func(d *Days) { d.now = now }
}

// NewDays wires the service. A nil locker uses an in-process KeyedMutex and a
// nil renderer uses fixed templates.
func NewDays(st store.Store, locker lock.Locker, renderer *feedback.Renderer, log *logger.Logger, opts ...Option) *Days {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if log == nil {
		log = logger.Nop()
	}
	if renderer == nil {
		renderer = feedback.NewRenderer(nil, 0, log)
	}
	d := &Days{
		store:    st,
		locker:   locker,
		renderer: renderer,
		now:      time.Now,
		log:      log.With("service", "Days"),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Date formats the UTC calendar date for t.
func Date(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// Today returns the current UTC date key.
func (d *Days) Today() string {
	return Date(d.now())
}

// ResolveToday closes out today's goal set for userID. Resolving a day twice
// returns the recorded outcome without counting it again.
func (d *Days) ResolveToday(ctx context.Context, userID string) (*Outcome, error) {
	date := d.Today()

	res, replayed, err := d.resolve(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	// The state is committed; the message is best effort.
	msg, generated := d.renderer.Message(ctx, res)

	d.log.Info("day resolved",
		"user", userID,
		"date", date,
		"completed", res.CompletedGoals,
		"total", res.TotalGoals,
		"category", res.Category,
		"form", res.State.CurrentForm,
		"replayed", replayed,
		"generated", generated,
	)

	return &Outcome{
		Stats:     res.State,
		Message:   msg,
		Generated: generated,
		Replayed:  replayed,
		Result:    res,
	}, nil
}

func (d *Days) resolve(ctx context.Context, userID, date string) (model.ResolutionResult, bool, error) {
	unlock, err := d.locker.Lock(ctx, "resolve:"+userID)
	if err != nil {
		return model.ResolutionResult{}, false, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	return d.store.ResolveDay(ctx, userID, date, resolver.Resolve)
}

// Goals returns today's goal set, empty if none was created yet.
func (d *Days) Goals(ctx context.Context, userID string) (model.GoalSet, error) {
	gs, err := d.store.LoadGoalSet(ctx, userID, d.Today())
	if errors.Is(err, store.ErrNotFound) {
		return model.GoalSet{}, nil
	}
	return gs, err
}

// AddGoal appends a goal to today's set.
func (d *Days) AddGoal(ctx context.Context, userID, text string) (*model.Goal, error) {
	return d.store.AddGoal(ctx, userID, d.Today(), text)
}

// ToggleGoal flips a goal in today's set.
func (d *Days) ToggleGoal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	return d.store.ToggleGoal(ctx, userID, d.Today(), goalID)
}

// StartDay creates today's empty goal set.
func (d *Days) StartDay(ctx context.Context, userID string) error {
	return d.store.CreateGoalSet(ctx, userID, d.Today())
}

// Stats returns the user's progression.
func (d *Days) Stats(ctx context.Context, userID string) (model.ProgressionState, error) {
	return d.store.LoadState(ctx, userID)
}

// History returns the user's resolved days, newest first.
func (d *Days) History(ctx context.Context, userID string, limit int) ([]model.ResolutionResult, error) {
	return d.store.History(ctx, userID, limit)
}
