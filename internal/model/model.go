package model

import "time"

type AuthMethod string

const (
	AuthMethodLocal  AuthMethod = "local"
	AuthMethodGoogle AuthMethod = "google"
)

type Client struct {
	ID                  string
	FirstName           string
	LastName            string
	Email               string
	PasswordHash        string
	GoogleID            string
	AuthMethod          AuthMethod
	EmailVerified       bool
	VerificationToken   string
	VerificationExpires *time.Time
	TargetGoals         TargetGoals
	WorkoutSchedule     []WorkoutDay
	Logs                []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasPassword reports whether the record can sign in with a local password.
func (c Client) HasPassword() bool {
	return c.PasswordHash != ""
}

type TargetGoals struct {
	Calories *float64
	Macros   Macros
}

type Macros struct {
	Protein *float64
	Carbs   *float64
	Fats    *float64
}

// Merge returns g with every non-nil field of update applied.
func (g TargetGoals) Merge(update TargetGoals) TargetGoals {
	if update.Calories != nil {
		g.Calories = update.Calories
	}
	if update.Macros.Protein != nil {
		g.Macros.Protein = update.Macros.Protein
	}
	if update.Macros.Carbs != nil {
		g.Macros.Carbs = update.Macros.Carbs
	}
	if update.Macros.Fats != nil {
		g.Macros.Fats = update.Macros.Fats
	}
	return g
}

type WorkoutDay struct {
	Day       string
	Exercises []WorkoutExercise
}

type WorkoutExercise struct {
	Name   string
	Sets   int
	Reps   int
	Weight float64
}

type ProgressLog struct {
	ID               string
	ClientID         string
	Date             time.Time
	Weight           float64
	StrengthProgress []StrengthEntry
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type StrengthEntry struct {
	Exercise  string
	MaxWeight float64
	Reps      *int
}

type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}
