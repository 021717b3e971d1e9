package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fittrack/api/internal/identity"
	"fittrack/api/internal/model"
)

type clientView struct {
	ID              string           `json:"id"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Email           string           `json:"email"`
	AuthMethod      model.AuthMethod `json:"authMethod"`
	GoogleID        string           `json:"googleId,omitempty"`
	EmailVerified   bool             `json:"emailVerified"`
	TargetGoals     goalsView        `json:"targetGoals"`
	WorkoutSchedule []workoutDayView `json:"workoutSchedule"`
	Logs            []string         `json:"logs"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type goalsView struct {
	Calories *float64   `json:"calories,omitempty"`
	Macros   macrosView `json:"macros"`
}

type macrosView struct {
	Protein *float64 `json:"protein,omitempty"`
	Carbs   *float64 `json:"carbs,omitempty"`
	Fats    *float64 `json:"fats,omitempty"`
}

type workoutDayView struct {
	Day       string                `json:"day"`
	Exercises []workoutExerciseView `json:"exercises"`
}

type workoutExerciseView struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type logView struct {
	ID               string         `json:"id"`
	Client           string         `json:"client"`
	Date             time.Time      `json:"date"`
	Weight           float64        `json:"weight"`
	StrengthProgress []strengthView `json:"strengthProgress"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type strengthView struct {
	Exercise  string  `json:"exercise"`
	MaxWeight float64 `json:"maxWeight"`
	Reps      *int    `json:"reps,omitempty"`
}

// newClientView drops the password hash and verification token.
func newClientView(c model.Client) clientView {
	logs := c.Logs
	if logs == nil {
		logs = []string{}
	}
	return clientView{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		AuthMethod:      c.AuthMethod,
		GoogleID:        c.GoogleID,
		EmailVerified:   c.EmailVerified,
		TargetGoals:     newGoalsView(c.TargetGoals),
		WorkoutSchedule: newScheduleView(c.WorkoutSchedule),
		Logs:            logs,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func newGoalsView(g model.TargetGoals) goalsView {
	return goalsView{
		Calories: g.Calories,
		Macros:   macrosView{Protein: g.Macros.Protein, Carbs: g.Macros.Carbs, Fats: g.Macros.Fats},
	}
}

func newScheduleView(days []model.WorkoutDay) []workoutDayView {
	out := make([]workoutDayView, 0, len(days))
	for _, day := range days {
		exercises := make([]workoutExerciseView, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, workoutExerciseView{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps, Weight: ex.Weight})
		}
		out = append(out, workoutDayView{Day: day.Day, Exercises: exercises})
	}
	return out
}

func newLogView(l model.ProgressLog) logView {
	entries := make([]strengthView, 0, len(l.StrengthProgress))
	for _, e := range l.StrengthProgress {
		entries = append(entries, strengthView{Exercise: e.Exercise, MaxWeight: e.MaxWeight, Reps: e.Reps})
	}
	return logView{
		ID:               l.ID,
		Client:           l.ClientID,
		Date:             l.Date,
		Weight:           l.Weight,
		StrengthProgress: entries,
		Notes:            l.Notes,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

type validationResponse struct {
	Error  string                `json:"error"`
	Errors []identity.FieldError `json:"errors"`
}

// writeServiceError maps identity and store errors onto the HTTP taxonomy.
// notFound is the message used for model.ErrNotFound.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *identity.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: "Validation failed", Errors: verr.Fields})
	case errors.Is(err, model.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already exists")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, model.ErrInvalidOrExpiredToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
