// Package resolver closes out a day's goal set and computes the new
// progression state. It performs no I/O.
package resolver

import (
	"errors"

	"github.com/rcliao/procrastinemon/internal/model"
)

const (
	UserXPPerGoal  = 10
	DemonXPPerMiss = 5

	EvolvedThreshold = 100
	GreaterThreshold = 200
)

// ErrEmptyGoalSet is returned when a day has no goals to resolve.
var ErrEmptyGoalSet = errors.New("cannot finish day with no goals set")

// Resolve applies a day's goal set to the prior state. prior is never
// modified; the caller replaces its stored state with the returned value.
func Resolve(prior model.ProgressionState, goals model.GoalSet) (model.ProgressionState, model.ResolutionResult, error) {
	if len(goals) == 0 {
		return prior, model.ResolutionResult{}, ErrEmptyGoalSet
	}

	total := len(goals)
	completed := goals.Completed()
	missed := total - completed

	userInc := completed * UserXPPerGoal
	demonInc := missed * DemonXPPerMiss

	next := model.ProgressionState{
		UserXP:  prior.UserXP + userInc,
		DemonXP: prior.DemonXP + demonInc,
	}
	if completed > 0 {
		next.CurrentStreak = prior.CurrentStreak + 1
	}
	// Form is derived from demon XP only and never set independently.
	next.CurrentForm = FormFor(next.DemonXP)

	res := model.ResolutionResult{
		CompletedGoals:  completed,
		TotalGoals:      total,
		MissedGoals:     missed,
		UserXPIncrease:  userInc,
		DemonXPIncrease: demonInc,
		Category:        CategoryFor(completed, total),
		State:           next,
	}
	return next, res, nil
}

// FormFor maps accumulated demon XP to a form.
func FormFor(demonXP int) model.Form {
	switch {
	case demonXP >= GreaterThreshold:
		return model.FormGreater
	case demonXP >= EvolvedThreshold:
		return model.FormEvolved
	default:
		return model.FormBasic
	}
}

// CategoryFor picks the feedback category for a day's counts.
func CategoryFor(completed, total int) model.Category {
	missed := total - completed
	switch {
	case total > 0 && completed == total:
		return model.CategoryAllCompleted
	case missed == total:
		return model.CategoryNoneCompleted
	case completed > missed:
		return model.CategoryMixedMoreCompleted
	default:
		return model.CategoryMixedMoreMissed
	}
}
