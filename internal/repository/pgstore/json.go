package pgstore

import "fittrack/api/internal/model"

// JSONB column shapes. Field names follow the document schema.

type goalsJSON struct {
	Calories *float64   `json:"calories,omitempty"`
	Macros   macrosJSON `json:"macros"`
}

type macrosJSON struct {
	Protein *float64 `json:"protein,omitempty"`
	Carbs   *float64 `json:"carbs,omitempty"`
	Fats    *float64 `json:"fats,omitempty"`
}

type workoutDayJSON struct {
	Day       string                `json:"day"`
	Exercises []workoutExerciseJSON `json:"exercises"`
}

type workoutExerciseJSON struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type strengthJSON struct {
	Exercise  string  `json:"exercise"`
	MaxWeight float64 `json:"maxWeight"`
	Reps      *int    `json:"reps,omitempty"`
}

func toGoalsJSON(g model.TargetGoals) goalsJSON {
	return goalsJSON{
		Calories: g.Calories,
		Macros:   macrosJSON{Protein: g.Macros.Protein, Carbs: g.Macros.Carbs, Fats: g.Macros.Fats},
	}
}

func (g goalsJSON) model() model.TargetGoals {
	return model.TargetGoals{
		Calories: g.Calories,
		Macros:   model.Macros{Protein: g.Macros.Protein, Carbs: g.Macros.Carbs, Fats: g.Macros.Fats},
	}
}

func toScheduleJSON(days []model.WorkoutDay) []workoutDayJSON {
	out := make([]workoutDayJSON, 0, len(days))
	for _, day := range days {
		exercises := make([]workoutExerciseJSON, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, workoutExerciseJSON{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps, Weight: ex.Weight})
		}
		out = append(out, workoutDayJSON{Day: day.Day, Exercises: exercises})
	}
	return out
}

func scheduleModel(days []workoutDayJSON) []model.WorkoutDay {
	if len(days) == 0 {
		return nil
	}
	out := make([]model.WorkoutDay, 0, len(days))
	for _, day := range days {
		exercises := make([]model.WorkoutExercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, model.WorkoutExercise{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps, Weight: ex.Weight})
		}
		out = append(out, model.WorkoutDay{Day: day.Day, Exercises: exercises})
	}
	return out
}

func toStrengthJSON(entries []model.StrengthEntry) []strengthJSON {
	out := make([]strengthJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, strengthJSON{Exercise: e.Exercise, MaxWeight: e.MaxWeight, Reps: e.Reps})
	}
	return out
}

func strengthModel(entries []strengthJSON) []model.StrengthEntry {
	out := make([]model.StrengthEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.StrengthEntry{Exercise: e.Exercise, MaxWeight: e.MaxWeight, Reps: e.Reps})
	}
	return out
}
