package identity

import (
	"strings"
	"time"
)

type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

func (in *SignupInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)
}

type FederatedProfile struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

type GoalsInput struct {
	Calories *float64 `json:"calories" validate:"omitempty,gte=0"`
	Protein  *float64 `json:"protein" validate:"omitempty,gte=0"`
	Carbs    *float64 `json:"carbs" validate:"omitempty,gte=0"`
	Fats     *float64 `json:"fats" validate:"omitempty,gte=0"`
}

func (in GoalsInput) empty() bool {
	return in.Calories == nil && in.Protein == nil && in.Carbs == nil && in.Fats == nil
}

type ProfileInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
}

type StrengthInput struct {
	Exercise  string   `json:"exercise" validate:"required,max=100"`
	MaxWeight *float64 `json:"maxWeight" validate:"required,gte=0"`
	Reps      *int     `json:"reps" validate:"omitempty,gte=0"`
}

type LogInput struct {
	Date             *time.Time      `json:"date"`
	Weight           *float64        `json:"weight" validate:"required,gte=0"`
	StrengthProgress []StrengthInput `json:"strengthProgress" validate:"required,min=1,dive"`
	Notes            string          `json:"notes" validate:"max=500"`
}

type WorkoutExerciseInput struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Sets   int     `json:"sets" validate:"gte=1"`
	Reps   int     `json:"reps" validate:"gte=1"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

type WorkoutDayInput struct {
	Day       string                 `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	Exercises []WorkoutExerciseInput `json:"exercises" validate:"dive"`
}

type WorkoutScheduleInput struct {
	WorkoutSchedule []WorkoutDayInput `json:"workoutSchedule" validate:"required,max=7,unique=Day,dive"`
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
