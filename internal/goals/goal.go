package goals

import (
	"fmt"
	"time"

	"github.com/2beens/fittrack/pkg/progress"
)

const Resource = "goal"

type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Target      float64   `json:"target"`
	Current     float64   `json:"current"`
	Unit        string    `json:"unit"`
	Deadline    string    `json:"deadline"`
	Progress    float64   `json:"progress"`
	Completed   bool      `json:"completed"`
	Difficulty  string    `json:"difficulty"`
	Priority    string    `json:"priority"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (g *Goal) GetID() string     { return g.ID }
func (g *Goal) GetUserID() string { return g.UserID }

func (g *Goal) Stamp(id string, createdAt, updatedAt time.Time) {
	g.ID = id
	if !createdAt.IsZero() {
		g.CreatedAt = createdAt
	}
	g.UpdatedAt = updatedAt
}

func (g *Goal) Clone() Goal {
	return *g
}

// Recompute derives progress and completed from current and target.
func (g *Goal) Recompute() error {
	res, err := progress.Compute(g.Current, g.Target)
	g.Progress, g.Completed = res.Progress, res.Completed
	if err != nil {
		return fmt.Errorf("goal %s: %w", g.ID, err)
	}
	return nil
}

// GoalForm is the create payload. Client supplied current, progress and
// completed values are not part of it and are therefore ignored.
type GoalForm struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Type        string   `json:"type" validate:"required,oneof=weight strength endurance frequency custom"`
	Category    string   `json:"category" validate:"required,oneof=fitness health performance lifestyle"`
	Target      *float64 `json:"target" validate:"required,gt=0"`
	Unit        string   `json:"unit" validate:"required"`
	Deadline    string   `json:"deadline" validate:"required,date"`
	Difficulty  string   `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high"`
	Description string   `json:"description" validate:"max=500"`
}

func (f GoalForm) Goal(userID string) Goal {
	return Goal{
		UserID:      userID,
		Title:       f.Title,
		Type:        f.Type,
		Category:    f.Category,
		Target:      *f.Target,
		Current:     0,
		Unit:        f.Unit,
		Deadline:    f.Deadline,
		Difficulty:  f.Difficulty,
		Priority:    f.Priority,
		Description: f.Description,
	}
}

// UpdateGoalForm is the partial update payload; only supplied fields are
// validated and applied.
type UpdateGoalForm struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=100"`
	Type        *string  `json:"type" validate:"omitnil,oneof=weight strength endurance frequency custom"`
	Category    *string  `json:"category" validate:"omitnil,oneof=fitness health performance lifestyle"`
	Target      *float64 `json:"target" validate:"omitnil,gt=0"`
	Current     *float64 `json:"current" validate:"omitnil,gte=0"`
	Unit        *string  `json:"unit" validate:"omitnil,min=1"`
	Deadline    *string  `json:"deadline" validate:"omitnil,date"`
	Difficulty  *string  `json:"difficulty" validate:"omitnil,oneof=beginner intermediate advanced"`
	Priority    *string  `json:"priority" validate:"omitnil,oneof=low medium high"`
	Description *string  `json:"description" validate:"omitnil,max=500"`
}

func (f UpdateGoalForm) Apply(g *Goal) {
	setIfPresent(&g.Title, f.Title)
	setIfPresent(&g.Type, f.Type)
	setIfPresent(&g.Category, f.Category)
	setIfPresent(&g.Target, f.Target)
	setIfPresent(&g.Current, f.Current)
	setIfPresent(&g.Unit, f.Unit)
	setIfPresent(&g.Deadline, f.Deadline)
	setIfPresent(&g.Difficulty, f.Difficulty)
	setIfPresent(&g.Priority, f.Priority)
	setIfPresent(&g.Description, f.Description)
}

type ProgressForm struct {
	Current *float64 `json:"current" validate:"required,gte=0"`
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
