package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/api/internal/identity"
	"fittrack/api/internal/model"
	"fittrack/api/internal/repository/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(*testing.T) identity.Store { return New() })
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateClient(ctx, model.Client{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		WorkoutSchedule: []model.WorkoutDay{
			{Day: "Monday", Exercises: []model.WorkoutExercise{{Name: "Squat", Sets: 3, Reps: 5}}},
		},
	})
	require.NoError(t, err)

	created.WorkoutSchedule[0].Exercises[0].Name = "mutated"
	stored, err := store.GetClientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Squat", stored.WorkoutSchedule[0].Exercises[0].Name)
}
