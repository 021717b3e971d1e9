// Package storetest holds the behaviour every identity.Store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/api/internal/identity"
	"fittrack/api/internal/model"
)

// Run exercises a fresh store from newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) identity.Store) {
	t.Helper()

	t.Run("CreateAndLookup", func(t *testing.T) { testCreateAndLookup(t, newStore(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("UnknownID", func(t *testing.T) { testUnknownID(t, newStore(t)) })
	t.Run("FederatedIdempotent", func(t *testing.T) { testFederatedIdempotent(t, newStore(t)) })
	t.Run("FederatedConcurrent", func(t *testing.T) { testFederatedConcurrent(t, newStore(t)) })
	t.Run("VerificationToken", func(t *testing.T) { testVerificationToken(t, newStore(t)) })
	t.Run("ExpiredVerificationToken", func(t *testing.T) { testExpiredVerificationToken(t, newStore(t)) })
	t.Run("GoalsMerge", func(t *testing.T) { testGoalsMerge(t, newStore(t)) })
	t.Run("ProfileAndSchedule", func(t *testing.T) { testProfileAndSchedule(t, newStore(t)) })
	t.Run("PasswordHash", func(t *testing.T) { testPasswordHash(t, newStore(t)) })
	t.Run("Logs", func(t *testing.T) { testLogs(t, newStore(t)) })
	t.Run("LogForMissingOwner", func(t *testing.T) { testLogForMissingOwner(t, newStore(t)) })
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func uniqueEmail(t *testing.T, local string) string {
	return fmt.Sprintf("%s.%d@example.local", local, time.Now().UnixNano())
}

func localClient(t *testing.T) model.Client {
	expires := base.Add(time.Hour)
	return model.Client{
		FirstName:           "Jane",
		LastName:            "Doe",
		Email:               uniqueEmail(t, "jane"),
		PasswordHash:        "$2a$10$abcdefghijklmnopqrstuv",
		AuthMethod:          model.AuthMethodLocal,
		VerificationToken:   fmt.Sprintf("token-%d", time.Now().UnixNano()),
		VerificationExpires: &expires,
		CreatedAt:           base,
		UpdatedAt:           base,
	}
}

func mustCreate(t *testing.T, store identity.Store, client model.Client) model.Client {
	t.Helper()
	created, err := store.CreateClient(context.Background(), client)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	return created
}

func testCreateAndLookup(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	byID, err := store.GetClientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)
	assert.Equal(t, "Jane", byID.FirstName)
	assert.Equal(t, model.AuthMethodLocal, byID.AuthMethod)
	assert.False(t, byID.EmailVerified)
	assert.True(t, byID.HasPassword())

	byEmail, err := store.GetClientByEmail(ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.GetClientByEmail(ctx, uniqueEmail(t, "nobody"))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, store identity.Store) {
	first := mustCreate(t, store, localClient(t))

	dup := localClient(t)
	dup.Email = first.Email
	_, err := store.CreateClient(context.Background(), dup)
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func testUnknownID(t *testing.T, store identity.Store) {
	ctx := context.Background()
	for _, id := range []string{"does-not-exist", "000000000000000000000000", "6f1c1a62-0000-4000-8000-000000000000"} {
		_, err := store.GetClientByID(ctx, id)
		assert.ErrorIs(t, err, model.ErrNotFound, id)
	}
}

func googleClient(t *testing.T) model.Client {
	return model.Client{
		FirstName:     "Sam",
		LastName:      "Unknown",
		Email:         uniqueEmail(t, "sam"),
		GoogleID:      fmt.Sprintf("g-%d", time.Now().UnixNano()),
		AuthMethod:    model.AuthMethodGoogle,
		EmailVerified: true,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
}

func testFederatedIdempotent(t *testing.T, store identity.Store) {
	ctx := context.Background()
	client := googleClient(t)

	first, err := store.FindOrCreateFederated(ctx, client)
	require.NoError(t, err)
	second, err := store.FindOrCreateFederated(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.EmailVerified)
	assert.False(t, second.HasPassword())

	// An existing local record with the same email wins.
	local := mustCreate(t, store, localClient(t))
	other := googleClient(t)
	other.Email = local.Email
	resolved, err := store.FindOrCreateFederated(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, local.ID, resolved.ID)
	assert.Equal(t, model.AuthMethodLocal, resolved.AuthMethod)
}

func testFederatedConcurrent(t *testing.T, store identity.Store) {
	ctx := context.Background()
	client := googleClient(t)

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolved, err := store.FindOrCreateFederated(ctx, client)
			ids[i], errs[i] = resolved.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func testVerificationToken(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	verified, err := store.ConsumeVerificationToken(ctx, created.VerificationToken, base)
	require.NoError(t, err)
	assert.Equal(t, created.ID, verified.ID)
	assert.True(t, verified.EmailVerified)
	assert.Empty(t, verified.VerificationToken)
	assert.Nil(t, verified.VerificationExpires)

	_, err = store.ConsumeVerificationToken(ctx, created.VerificationToken, base)
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredToken)
}

func testExpiredVerificationToken(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	_, err := store.ConsumeVerificationToken(ctx, created.VerificationToken, base.Add(2*time.Hour))
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredToken)

	stored, err := store.GetClientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

func float(v float64) *float64 { return &v }

func testGoalsMerge(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	goals, err := store.UpdateGoals(ctx, created.ID, model.TargetGoals{
		Calories: float(2200),
		Macros:   model.Macros{Protein: float(150)},
	}, base)
	require.NoError(t, err)
	require.NotNil(t, goals.Calories)
	assert.Equal(t, 2200.0, *goals.Calories)

	goals, err = store.UpdateGoals(ctx, created.ID, model.TargetGoals{Macros: model.Macros{Fats: float(70)}}, base)
	require.NoError(t, err)
	require.NotNil(t, goals.Calories)
	require.NotNil(t, goals.Macros.Protein)
	require.NotNil(t, goals.Macros.Fats)
	assert.Equal(t, 2200.0, *goals.Calories)
	assert.Equal(t, 150.0, *goals.Macros.Protein)
	assert.Equal(t, 70.0, *goals.Macros.Fats)
	assert.Nil(t, goals.Macros.Carbs)

	_, err = store.UpdateGoals(ctx, "missing", model.TargetGoals{Calories: float(1)}, base)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testProfileAndSchedule(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	first := "Janet"
	updated, err := store.UpdateProfile(ctx, created.ID, model.ProfileUpdate{FirstName: &first}, base)
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)
	assert.Equal(t, "Doe", updated.LastName)

	schedule := []model.WorkoutDay{
		{Day: "Monday", Exercises: []model.WorkoutExercise{{Name: "Squat", Sets: 5, Reps: 5, Weight: 100}}},
		{Day: "Thursday", Exercises: []model.WorkoutExercise{{Name: "Bench", Sets: 3, Reps: 8, Weight: 60}}},
	}
	withSchedule, err := store.SetWorkoutSchedule(ctx, created.ID, schedule, base)
	require.NoError(t, err)
	require.Len(t, withSchedule.WorkoutSchedule, 2)
	assert.Equal(t, "Thursday", withSchedule.WorkoutSchedule[1].Day)
	assert.Equal(t, "Bench", withSchedule.WorkoutSchedule[1].Exercises[0].Name)

	_, err = store.SetWorkoutSchedule(ctx, "missing", schedule, base)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testPasswordHash(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	require.NoError(t, store.SetPasswordHash(ctx, created.ID, "new-hash", base))
	stored, err := store.GetClientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)

	assert.ErrorIs(t, store.SetPasswordHash(ctx, "missing", "x", base), model.ErrNotFound)
}

func testLogs(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	reps := 5
	for i := 0; i < 35; i++ {
		_, err := store.AppendLog(ctx, model.ProgressLog{
			ClientID: created.ID,
			Date:     base.Add(time.Duration(i) * 24 * time.Hour),
			Weight:   80 - float64(i)/10,
			StrengthProgress: []model.StrengthEntry{
				{Exercise: "Deadlift", MaxWeight: 140 + float64(i), Reps: &reps},
			},
			Notes:     fmt.Sprintf("day %d", i),
			CreatedAt: base,
			UpdatedAt: base,
		})
		require.NoError(t, err)
	}

	logs, err := store.ListLogs(ctx, created.ID, 30)
	require.NoError(t, err)
	require.Len(t, logs, 30)
	assert.Equal(t, "day 34", logs[0].Notes)
	assert.Equal(t, "day 5", logs[29].Notes)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Date.After(logs[i-1].Date))
	}
	require.Len(t, logs[0].StrengthProgress, 1)
	assert.Equal(t, "Deadlift", logs[0].StrengthProgress[0].Exercise)
	require.NotNil(t, logs[0].StrengthProgress[0].Reps)
	assert.Equal(t, 5, *logs[0].StrengthProgress[0].Reps)

	owner, err := store.GetClientByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, owner.Logs, 35)
}

func testLogForMissingOwner(t *testing.T, store identity.Store) {
	ctx := context.Background()
	created := mustCreate(t, store, localClient(t))

	_, err := store.AppendLog(ctx, model.ProgressLog{
		ClientID:         "000000000000000000000000",
		Date:             base,
		Weight:           70,
		StrengthProgress: []model.StrengthEntry{{Exercise: "Row", MaxWeight: 50}},
		CreatedAt:        base,
		UpdatedAt:        base,
	})
	assert.ErrorIs(t, err, model.ErrNotFound)

	logs, err := store.ListLogs(ctx, created.ID, 30)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
