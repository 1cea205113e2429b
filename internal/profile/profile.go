package profile

import "time"

const Resource = "profile"

type Notifications struct {
	WorkoutReminders bool `json:"workoutReminders"`
	GoalUpdates      bool `json:"goalUpdates"`
	WeeklyReport     bool `json:"weeklyReport"`
	Achievements     bool `json:"achievements"`
}

type Preferences struct {
	Units         string        `json:"units"`
	Notifications Notifications `json:"notifications"`
}

type Stats struct {
	TotalWorkouts  int `json:"totalWorkouts"`
	TotalCalories  int `json:"totalCalories"`
	CurrentStreak  int `json:"currentStreak"`
	LongestStreak  int `json:"longestStreak"`
	GoalsCompleted int `json:"goalsCompleted"`
}

// Profile is keyed by its owner: ID and UserID are always equal.
type Profile struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	Age          *int        `json:"age,omitempty"`
	Height       *float64    `json:"height,omitempty"`
	Weight       *float64    `json:"weight,omitempty"`
	FitnessLevel string      `json:"fitnessLevel,omitempty"`
	Bio          string      `json:"bio"`
	Preferences  Preferences `json:"preferences"`
	Stats        Stats       `json:"stats"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (p *Profile) GetID() string     { return p.ID }
func (p *Profile) GetUserID() string { return p.UserID }

func (p *Profile) Stamp(id string, createdAt, updatedAt time.Time) {
	p.ID = id
	if !createdAt.IsZero() {
		p.CreatedAt = createdAt
	}
	p.UpdatedAt = updatedAt
}

func (p *Profile) Clone() Profile {
	c := *p
	c.Age = clonePtr(p.Age)
	c.Height = clonePtr(p.Height)
	c.Weight = clonePtr(p.Weight)
	return c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// DefaultProfile is the profile seeded for a fresh user.
func DefaultProfile(userID string) Profile {
	return Profile{
		ID:        userID,
		UserID:    userID,
		FirstName: "Demo",
		LastName:  "User",
		Email:     "demo@fittrack.local",
		Preferences: Preferences{
			Units: "metric",
			Notifications: Notifications{
				WorkoutReminders: true,
				GoalUpdates:      true,
				WeeklyReport:     true,
				Achievements:     true,
			},
		},
	}
}

// ProfileForm carries the editable personal fields; a PUT replaces all of them.
type ProfileForm struct {
	FirstName    string   `json:"firstName" validate:"required,max=50"`
	LastName     string   `json:"lastName" validate:"required,max=50"`
	Email        string   `json:"email" validate:"required,email"`
	Age          *int     `json:"age" validate:"omitnil,min=13,max=120"`
	Height       *float64 `json:"height" validate:"omitnil,gte=100,lte=250"`
	Weight       *float64 `json:"weight" validate:"omitnil,gte=30,lte=300"`
	FitnessLevel string   `json:"fitnessLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	Bio          string   `json:"bio" validate:"max=500"`
}

func (f ProfileForm) Apply(p *Profile) {
	p.FirstName = f.FirstName
	p.LastName = f.LastName
	p.Email = f.Email
	p.Age = clonePtr(f.Age)
	p.Height = clonePtr(f.Height)
	p.Weight = clonePtr(f.Weight)
	p.FitnessLevel = f.FitnessLevel
	p.Bio = f.Bio
}

type NotificationsForm struct {
	WorkoutReminders *bool `json:"workoutReminders"`
	GoalUpdates      *bool `json:"goalUpdates"`
	WeeklyReport     *bool `json:"weeklyReport"`
	Achievements     *bool `json:"achievements"`
}

type PreferencesForm struct {
	Units         *string            `json:"units" validate:"omitnil,oneof=metric imperial"`
	Notifications *NotificationsForm `json:"notifications"`
}

// Merge applies only the supplied keys, including the nested notification flags.
func (f PreferencesForm) Merge(prefs *Preferences) {
	setIfPresent(&prefs.Units, f.Units)
	if n := f.Notifications; n != nil {
		setIfPresent(&prefs.Notifications.WorkoutReminders, n.WorkoutReminders)
		setIfPresent(&prefs.Notifications.GoalUpdates, n.GoalUpdates)
		setIfPresent(&prefs.Notifications.WeeklyReport, n.WeeklyReport)
		setIfPresent(&prefs.Notifications.Achievements, n.Achievements)
	}
}

type StatsForm struct {
	TotalWorkouts  *int `json:"totalWorkouts" validate:"omitnil,gte=0"`
	TotalCalories  *int `json:"totalCalories" validate:"omitnil,gte=0"`
	CurrentStreak  *int `json:"currentStreak" validate:"omitnil,gte=0"`
	LongestStreak  *int `json:"longestStreak" validate:"omitnil,gte=0"`
	GoalsCompleted *int `json:"goalsCompleted" validate:"omitnil,gte=0"`
}

func (f StatsForm) Apply(stats *Stats) {
	setIfPresent(&stats.TotalWorkouts, f.TotalWorkouts)
	setIfPresent(&stats.TotalCalories, f.TotalCalories)
	setIfPresent(&stats.CurrentStreak, f.CurrentStreak)
	setIfPresent(&stats.LongestStreak, f.LongestStreak)
	setIfPresent(&stats.GoalsCompleted, f.GoalsCompleted)
}

func setIfPresent[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
