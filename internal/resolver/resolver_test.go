package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/procrastinemon/internal/model"
)

func goals(flags ...bool) model.GoalSet {
	gs := make(model.GoalSet, 0, len(flags))
	for i, done := range flags {
		gs = append(gs, model.Goal{ID: string(rune('a' + i)), Text: "quest", Completed: done})
	}
	return gs
}

func TestResolveScenarioA(t *testing.T) {
	prior := model.NewProgressionState()

	next, res, err := Resolve(prior, goals(true, true, false))
	require.NoError(t, err)

	assert.Equal(t, 2, res.CompletedGoals)
	assert.Equal(t, 1, res.MissedGoals)
	assert.Equal(t, 3, res.TotalGoals)
	assert.Equal(t, model.ProgressionState{UserXP: 20, DemonXP: 5, CurrentStreak: 1, CurrentForm: model.FormBasic}, next)
	assert.Equal(t, model.CategoryMixedMoreCompleted, res.Category)
	assert.Equal(t, next, res.State)
}

func TestResolveScenarioB(t *testing.T) {
	prior := model.ProgressionState{UserXP: 90, DemonXP: 95, CurrentStreak: 4, CurrentForm: model.FormBasic}

	next, res, err := Resolve(prior, goals(false))
	require.NoError(t, err)

	assert.Equal(t, 0, res.CompletedGoals)
	assert.Equal(t, 1, res.MissedGoals)
	assert.Equal(t, model.ProgressionState{UserXP: 90, DemonXP: 100, CurrentStreak: 0, CurrentForm: model.FormEvolved}, next)
	assert.Equal(t, model.CategoryNoneCompleted, res.Category)
}

func TestResolveScenarioC(t *testing.T) {
	prior := model.ProgressionState{DemonXP: 195, CurrentForm: model.FormEvolved}

	next, res, err := Resolve(prior, goals(true, false, false))
	require.NoError(t, err)

	assert.Equal(t, 2, res.MissedGoals)
	assert.Equal(t, 205, next.DemonXP)
	assert.Equal(t, model.FormGreater, next.CurrentForm)
	assert.Equal(t, model.CategoryMixedMoreMissed, res.Category)
}

func TestResolveEmptyGoalSet(t *testing.T) {
	prior := model.ProgressionState{UserXP: 40, DemonXP: 10, CurrentStreak: 2, CurrentForm: model.FormBasic}

	next, _, err := Resolve(prior, nil)
	assert.ErrorIs(t, err, ErrEmptyGoalSet)
	assert.Equal(t, prior, next)

	_, _, err = Resolve(prior, model.GoalSet{})
	assert.ErrorIs(t, err, ErrEmptyGoalSet)
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	prior := model.ProgressionState{UserXP: 5, DemonXP: 5, CurrentStreak: 1, CurrentForm: model.FormBasic}
	gs := goals(true, false)
	snapshot := append(model.GoalSet(nil), gs...)

	_, _, err := Resolve(prior, gs)
	require.NoError(t, err)

	assert.Equal(t, model.ProgressionState{UserXP: 5, DemonXP: 5, CurrentStreak: 1, CurrentForm: model.FormBasic}, prior)
	assert.Equal(t, snapshot, gs)
}

func TestResolveXPAndStreakRules(t *testing.T) {
	prior := model.ProgressionState{UserXP: 30, DemonXP: 20, CurrentStreak: 3, CurrentForm: model.FormBasic}

	// Every goal set of size 1..3.
	for size := 1; size <= model.MaxGoalsPerDay; size++ {
		for mask := 0; mask < 1<<size; mask++ {
			flags := make([]bool, size)
			completed := 0
			for i := range flags {
				flags[i] = mask&(1<<i) != 0
				if flags[i] {
					completed++
				}
			}
			missed := size - completed

			next, res, err := Resolve(prior, goals(flags...))
			require.NoError(t, err)

			assert.Equal(t, 10*completed, res.UserXPIncrease)
			assert.Equal(t, 5*missed, res.DemonXPIncrease)
			assert.Equal(t, prior.UserXP+10*completed, next.UserXP)
			assert.Equal(t, prior.DemonXP+5*missed, next.DemonXP)

			switch {
			case completed == size:
				assert.Equal(t, model.CategoryAllCompleted, res.Category)
				assert.Zero(t, res.DemonXPIncrease)
				assert.Equal(t, prior.CurrentStreak+1, next.CurrentStreak)
			case completed == 0:
				assert.Equal(t, model.CategoryNoneCompleted, res.Category)
				assert.Zero(t, res.UserXPIncrease)
				assert.Zero(t, next.CurrentStreak)
			default:
				assert.Equal(t, prior.CurrentStreak+1, next.CurrentStreak)
			}
		}
	}
}

func TestFormFor(t *testing.T) {
	tests := []struct {
		xp   int
		want model.Form
	}{
		{0, model.FormBasic},
		{99, model.FormBasic},
		{100, model.FormEvolved},
		{199, model.FormEvolved},
		{200, model.FormGreater},
		{10000, model.FormGreater},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormFor(tt.xp), "demonXP=%d", tt.xp)
	}

	rank := map[model.Form]int{model.FormBasic: 0, model.FormEvolved: 1, model.FormGreater: 2}
	for xp := 1; xp <= 300; xp++ {
		assert.GreaterOrEqual(t, rank[FormFor(xp)], rank[FormFor(xp-1)], "form dropped at demonXP=%d", xp)
	}
}

func TestFormRecomputedFromDemonXP(t *testing.T) {
	// A stored form that disagrees with demon XP is corrected on the next resolve.
	prior := model.ProgressionState{DemonXP: 10, CurrentForm: model.FormGreater}

	next, _, err := Resolve(prior, goals(true))
	require.NoError(t, err)
	assert.Equal(t, model.FormBasic, next.CurrentForm)
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name             string
		completed, total int
		want             model.Category
	}{
		{"all", 3, 3, model.CategoryAllCompleted},
		{"single done", 1, 1, model.CategoryAllCompleted},
		{"none", 0, 2, model.CategoryNoneCompleted},
		{"more completed", 2, 3, model.CategoryMixedMoreCompleted},
		{"more missed", 1, 3, model.CategoryMixedMoreMissed},
		{"tie", 1, 2, model.CategoryMixedMoreMissed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.completed, tt.total))
		})
	}
}
