// Package model defines the core goal and progression data types.
package model

import "time"

// MaxGoalsPerDay caps the number of live goals in a day's goal set.
const MaxGoalsPerDay = 3

// MaxGoalTextLen is the longest goal text accepted.
const MaxGoalTextLen = 200

// DateLayout formats the UTC calendar date a goal set belongs to.
const DateLayout = "2006-01-02"

// Goal is a single user-defined daily task.
type Goal struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// GoalSet is the ordered list of goals for one user and one day.
type GoalSet []Goal

// Completed returns how many goals in the set are done.
func (gs GoalSet) Completed() int {
	n := 0
	for _, g := range gs {
		if g.Completed {
			n++
		}
	}
	return n
}

// Form is the demon's visual tier.
type Form string

const (
	FormBasic   Form = "basic"
	FormEvolved Form = "evolved"
	FormGreater Form = "greater"
)

// ValidForms are the allowed demon forms.
var ValidForms = map[Form]bool{
	FormBasic:   true,
	FormEvolved: true,
	FormGreater: true,
}

// ProgressionState is the persisted per-user counter record.
type ProgressionState struct {
	UserXP        int  `json:"userXP"`
	DemonXP       int  `json:"demonXP"`
	CurrentStreak int  `json:"currentStreak"`
	CurrentForm   Form `json:"currentForm"`
}

// NewProgressionState returns the state of a user who never resolved a day.
func NewProgressionState() ProgressionState {
	return ProgressionState{CurrentForm: FormBasic}
}

// Category selects which kind of feedback message applies to a day.
type Category string

const (
	CategoryAllCompleted       Category = "all-completed"
	CategoryNoneCompleted      Category = "none-completed"
	CategoryMixedMoreCompleted Category = "mixed-more-completed"
	CategoryMixedMoreMissed    Category = "mixed-more-missed"
)

// ResolutionResult summarizes one resolved day.
type ResolutionResult struct {
	Date            string           `json:"date"`
	CompletedGoals  int              `json:"completedGoals"`
	TotalGoals      int              `json:"totalGoals"`
	MissedGoals     int              `json:"missedGoals"`
	UserXPIncrease  int              `json:"userXPIncrease"`
	DemonXPIncrease int              `json:"demonXPIncrease"`
	Category        Category         `json:"messageCategory"`
	State           ProgressionState `json:"state"`
	ResolvedAt      *time.Time       `json:"resolvedAt,omitempty"`
}
