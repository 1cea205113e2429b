package workouts

import (
	"time"
)

const Resource = "workout"

// Exercise entries are stored as sent by the client.
type Exercise = map[string]any

type Workout struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Duration  int        `json:"duration"`
	Calories  int        `json:"calories"`
	Date      string     `json:"date"`
	Notes     string     `json:"notes"`
	Completed bool       `json:"completed"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (w *Workout) GetID() string     { return w.ID }
func (w *Workout) GetUserID() string { return w.UserID }

func (w *Workout) Stamp(id string, createdAt, updatedAt time.Time) {
	w.ID = id
	if !createdAt.IsZero() {
		w.CreatedAt = createdAt
	}
	w.UpdatedAt = updatedAt
}

func (w *Workout) Clone() Workout {
	c := *w
	c.Exercises = cloneExercises(w.Exercises)
	return c
}

func cloneExercises(exercises []Exercise) []Exercise {
	res := make([]Exercise, 0, len(exercises))
	for _, ex := range exercises {
		res = append(res, cloneValue(ex).(Exercise))
	}
	return res
}

// cloneValue copies the nested maps and slices a decoded JSON value is made of.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		res := make(map[string]any, len(val))
		for k, item := range val {
			res[k] = cloneValue(item)
		}
		return res
	case []any:
		if val == nil {
			return val
		}
		res := make([]any, len(val))
		for i, item := range val {
			res[i] = cloneValue(item)
		}
		return res
	default:
		return v
	}
}

type WorkoutForm struct {
	Name     string `json:"name" validate:"required,max=100"`
	Type     string `json:"type" validate:"required,oneof=cardio strength flexibility hiit"`
	Duration *int   `json:"duration" validate:"required,min=1,max=480"`
	Calories *int   `json:"calories" validate:"required,min=0,max=2000"`
	Date     string `json:"date" validate:"required,date"`
	Notes    string `json:"notes" validate:"max=500"`
}

// Workout builds a logged workout: it is always completed and starts with
// no exercises, whatever the client sent.
func (f WorkoutForm) Workout(userID string) Workout {
	return Workout{
		UserID:    userID,
		Name:      f.Name,
		Type:      f.Type,
		Duration:  *f.Duration,
		Calories:  *f.Calories,
		Date:      f.Date,
		Notes:     f.Notes,
		Completed: true,
		Exercises: []Exercise{},
	}
}

type UpdateWorkoutForm struct {
	Name      *string     `json:"name" validate:"omitnil,min=1,max=100"`
	Type      *string     `json:"type" validate:"omitnil,oneof=cardio strength flexibility hiit"`
	Duration  *int        `json:"duration" validate:"omitnil,min=1,max=480"`
	Calories  *int        `json:"calories" validate:"omitnil,min=0,max=2000"`
	Date      *string     `json:"date" validate:"omitnil,date"`
	Notes     *string     `json:"notes" validate:"omitnil,max=500"`
	Completed *bool       `json:"completed"`
	Exercises *[]Exercise `json:"exercises"`
}

func (f UpdateWorkoutForm) Apply(w *Workout) {
	setIfPresent(&w.Name, f.Name)
	setIfPresent(&w.Type, f.Type)
	setIfPresent(&w.Duration, f.Duration)
	setIfPresent(&w.Calories, f.Calories)
	setIfPresent(&w.Date, f.Date)
	setIfPresent(&w.Notes, f.Notes)
	setIfPresent(&w.Completed, f.Completed)
	if f.Exercises != nil {
		w.Exercises = cloneExercises(*f.Exercises)
	}
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
