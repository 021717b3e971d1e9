package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/api/internal/model"
)

type clientDoc struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"`
	FirstName           string               `bson:"firstName"`
	LastName            string               `bson:"lastName"`
	Email               string               `bson:"email"`
	Password            string               `bson:"password,omitempty"`
	GoogleID            string               `bson:"googleId,omitempty"`
	AuthMethod          string               `bson:"authMethod"`
	EmailVerified       bool                 `bson:"emailVerified"`
	VerificationToken   string               `bson:"verificationToken,omitempty"`
	VerificationExpires *time.Time           `bson:"verificationExpires,omitempty"`
	TargetGoals         *goalsDoc            `bson:"targetGoals,omitempty"`
	WorkoutSchedule     []workoutDayDoc      `bson:"workoutSchedule,omitempty"`
	Logs                []primitive.ObjectID `bson:"logs"`
	CreatedAt           time.Time            `bson:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt"`
}

type goalsDoc struct {
	Calories *float64   `bson:"calories,omitempty"`
	Macros   *macrosDoc `bson:"macros,omitempty"`
}

type macrosDoc struct {
	Protein *float64 `bson:"protein,omitempty"`
	Carbs   *float64 `bson:"carbs,omitempty"`
	Fats    *float64 `bson:"fats,omitempty"`
}

type workoutDayDoc struct {
	Day       string               `bson:"day"`
	Exercises []workoutExerciseDoc `bson:"exercises"`
}

type workoutExerciseDoc struct {
	Name   string  `bson:"name"`
	Sets   int     `bson:"sets"`
	Reps   int     `bson:"reps"`
	Weight float64 `bson:"weight"`
}

type logDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Client           primitive.ObjectID `bson:"client"`
	Date             time.Time          `bson:"date"`
	Weight           float64            `bson:"weight"`
	StrengthProgress []strengthDoc      `bson:"strengthProgress"`
	Notes            string             `bson:"notes,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
}

type strengthDoc struct {
	Exercise  string  `bson:"exercise"`
	MaxWeight float64 `bson:"maxWeight"`
	Reps      *int    `bson:"reps,omitempty"`
}

func toClientDoc(c model.Client) clientDoc {
	doc := clientDoc{
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Email:               c.Email,
		Password:            c.PasswordHash,
		GoogleID:            c.GoogleID,
		AuthMethod:          string(c.AuthMethod),
		EmailVerified:       c.EmailVerified,
		VerificationToken:   c.VerificationToken,
		VerificationExpires: c.VerificationExpires,
		TargetGoals:         toGoalsDoc(c.TargetGoals),
		WorkoutSchedule:     toScheduleDoc(c.WorkoutSchedule),
		Logs:                []primitive.ObjectID{},
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(c.ID); err == nil {
		doc.ID = id
	}
	return doc
}

func (d clientDoc) model() model.Client {
	c := model.Client{
		ID:                d.ID.Hex(),
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Email:             d.Email,
		PasswordHash:      d.Password,
		GoogleID:          d.GoogleID,
		AuthMethod:        model.AuthMethod(d.AuthMethod),
		EmailVerified:     d.EmailVerified,
		VerificationToken: d.VerificationToken,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
	}
	if c.AuthMethod == "" {
		c.AuthMethod = model.AuthMethodLocal
	}
	if d.VerificationExpires != nil {
		expires := d.VerificationExpires.UTC()
		c.VerificationExpires = &expires
	}
	if d.TargetGoals != nil {
		c.TargetGoals = d.TargetGoals.model()
	}
	for _, day := range d.WorkoutSchedule {
		exercises := make([]model.WorkoutExercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, model.WorkoutExercise{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps, Weight: ex.Weight})
		}
		c.WorkoutSchedule = append(c.WorkoutSchedule, model.WorkoutDay{Day: day.Day, Exercises: exercises})
	}
	for _, id := range d.Logs {
		c.Logs = append(c.Logs, id.Hex())
	}
	return c
}

func toGoalsDoc(g model.TargetGoals) *goalsDoc {
	if g.Calories == nil && g.Macros.Protein == nil && g.Macros.Carbs == nil && g.Macros.Fats == nil {
		return nil
	}
	return &goalsDoc{
		Calories: g.Calories,
		Macros:   &macrosDoc{Protein: g.Macros.Protein, Carbs: g.Macros.Carbs, Fats: g.Macros.Fats},
	}
}

func (d goalsDoc) model() model.TargetGoals {
	g := model.TargetGoals{Calories: d.Calories}
	if d.Macros != nil {
		g.Macros = model.Macros{Protein: d.Macros.Protein, Carbs: d.Macros.Carbs, Fats: d.Macros.Fats}
	}
	return g
}

func toScheduleDoc(days []model.WorkoutDay) []workoutDayDoc {
	if days == nil {
		return nil
	}
	out := make([]workoutDayDoc, 0, len(days))
	for _, day := range days {
		exercises := make([]workoutExerciseDoc, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, workoutExerciseDoc{Name: ex.Name, Sets: ex.Sets, Reps: ex.Reps, Weight: ex.Weight})
		}
		out = append(out, workoutDayDoc{Day: day.Day, Exercises: exercises})
	}
	return out
}

func toLogDoc(l model.ProgressLog, owner primitive.ObjectID) logDoc {
	entries := make([]strengthDoc, 0, len(l.StrengthProgress))
	for _, e := range l.StrengthProgress {
		entries = append(entries, strengthDoc{Exercise: e.Exercise, MaxWeight: e.MaxWeight, Reps: e.Reps})
	}
	return logDoc{
		Client:           owner,
		Date:             l.Date,
		Weight:           l.Weight,
		StrengthProgress: entries,
		Notes:            l.Notes,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func (d logDoc) model() model.ProgressLog {
	entries := make([]model.StrengthEntry, 0, len(d.StrengthProgress))
	for _, e := range d.StrengthProgress {
		entries = append(entries, model.StrengthEntry{Exercise: e.Exercise, MaxWeight: e.MaxWeight, Reps: e.Reps})
	}
	return model.ProgressLog{
		ID:               d.ID.Hex(),
		ClientID:         d.Client.Hex(),
		Date:             d.Date.UTC(),
		Weight:           d.Weight,
		StrengthProgress: entries,
		Notes:            d.Notes,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
}
