package identity_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/api/internal/identity"
	"fittrack/api/internal/model"
	"fittrack/api/internal/repository/memstore"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newService(t *testing.T) (*identity.Service, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return identity.NewService(memstore.New(), time.Hour, identity.WithClock(c.Now)), c
}

func signup(t *testing.T, svc *identity.Service) model.Client {
	t.Helper()
	client, err := svc.CreateLocalIdentity(context.Background(), identity.SignupInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "Jane@Example.com ",
		Password:  "hunter2!!",
	})
	require.NoError(t, err)
	return client
}

func float(v float64) *float64 { return &v }

func TestCreateLocalIdentity(t *testing.T) {
	svc, c := newService(t)
	client := signup(t, svc)

	assert.NotEmpty(t, client.ID)
	assert.Equal(t, "jane@example.com", client.Email)
	assert.Equal(t, model.AuthMethodLocal, client.AuthMethod)
	assert.False(t, client.EmailVerified)
	assert.NotEqual(t, "hunter2!!", client.PasswordHash)
	assert.NotEmpty(t, client.VerificationToken)
	require.NotNil(t, client.VerificationExpires)
	assert.Equal(t, c.now.Add(time.Hour), *client.VerificationExpires)
}

func TestCreateLocalIdentityValidation(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateLocalIdentity(context.Background(), identity.SignupInput{
		FirstName: " ",
		Email:     "not-an-email",
		Password:  "short",
	})

	var verr *identity.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["firstName"])
	assert.Equal(t, "is required", fields["lastName"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
}

func TestDuplicateEmailAcrossMethods(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	signup(t, svc)

	_, err := svc.CreateLocalIdentity(ctx, identity.SignupInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "jane@example.com",
		Password:  "password123",
	})
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)

	federated, err := svc.FindOrCreateFederatedIdentity(ctx, identity.FederatedProfile{
		ExternalID: "g-1",
		Email:      "kim@example.com",
	})
	require.NoError(t, err)
	_, err = svc.CreateLocalIdentity(ctx, identity.SignupInput{
		FirstName: "Kim",
		LastName:  "Lee",
		Email:     federated.Email,
		Password:  "password123",
	})
	assert.ErrorIs(t, err, model.ErrDuplicateEmail)
}

func TestVerifyLocalCredentials(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	client, err := svc.VerifyLocalCredentials(ctx, "JANE@example.com", "hunter2!!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, client.ID)

	_, err = svc.VerifyLocalCredentials(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.VerifyLocalCredentials(ctx, "ghost@example.com", "hunter2!!")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.FindOrCreateFederatedIdentity(ctx, identity.FederatedProfile{ExternalID: "g-2", Email: "gmail@example.com"})
	require.NoError(t, err)
	_, err = svc.VerifyLocalCredentials(ctx, "gmail@example.com", "anything")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestConsumeVerificationToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	verified, err := svc.ConsumeVerificationToken(ctx, created.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	_, err = svc.ConsumeVerificationToken(ctx, created.VerificationToken)
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredToken)

	_, err = svc.ConsumeVerificationToken(ctx, "")
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredToken)
}

func TestConsumeExpiredVerificationToken(t *testing.T) {
	svc, c := newService(t)
	created := signup(t, svc)

	c.now = c.now.Add(time.Hour + time.Second)
	_, err := svc.ConsumeVerificationToken(context.Background(), created.VerificationToken)
	assert.ErrorIs(t, err, model.ErrInvalidOrExpiredToken)
}

func TestFederatedIdentityIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	profile := identity.FederatedProfile{ExternalID: "g-42", Email: "Sam@Example.com", FirstName: "Sam"}

	first, err := svc.FindOrCreateFederatedIdentity(ctx, profile)
	require.NoError(t, err)
	second, err := svc.FindOrCreateFederatedIdentity(ctx, profile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "sam@example.com", first.Email)
	assert.Equal(t, "Sam", first.FirstName)
	assert.Equal(t, "Unknown", first.LastName)
	assert.Equal(t, model.AuthMethodGoogle, first.AuthMethod)
	assert.True(t, first.EmailVerified)
	assert.False(t, first.HasPassword())

	_, err = svc.FindOrCreateFederatedIdentity(ctx, identity.FederatedProfile{ExternalID: "g-43"})
	var verr *identity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateGoalsMerges(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	_, err := svc.UpdateGoals(ctx, created.ID, identity.GoalsInput{Calories: float(2000), Protein: float(140)})
	require.NoError(t, err)
	goals, err := svc.UpdateGoals(ctx, created.ID, identity.GoalsInput{Carbs: float(250)})
	require.NoError(t, err)

	require.NotNil(t, goals.Calories)
	require.NotNil(t, goals.Macros.Protein)
	require.NotNil(t, goals.Macros.Carbs)
	assert.Equal(t, 2000.0, *goals.Calories)
	assert.Equal(t, 140.0, *goals.Macros.Protein)
	assert.Equal(t, 250.0, *goals.Macros.Carbs)
	assert.Nil(t, goals.Macros.Fats)
}

func TestUpdateGoalsRejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	var verr *identity.ValidationError
	_, err := svc.UpdateGoals(ctx, created.ID, identity.GoalsInput{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no goals provided", verr.Fields[0].Message)

	_, err = svc.UpdateGoals(ctx, created.ID, identity.GoalsInput{Fats: float(-1)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fats", verr.Fields[0].Field)

	_, err = svc.UpdateGoals(ctx, "missing", identity.GoalsInput{Calories: float(1)})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	last := "  Smith "
	updated, err := svc.UpdateProfile(ctx, created.ID, identity.ProfileInput{LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName)

	blank := " "
	_, err = svc.UpdateProfile(ctx, created.ID, identity.ProfileInput{FirstName: &blank})
	var verr *identity.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSetWorkoutSchedule(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	client, err := svc.SetWorkoutSchedule(ctx, created.ID, identity.WorkoutScheduleInput{
		WorkoutSchedule: []identity.WorkoutDayInput{
			{Day: "Monday", Exercises: []identity.WorkoutExerciseInput{{Name: "Squat", Sets: 5, Reps: 5, Weight: 100}}},
			{Day: "Friday"},
		},
	})
	require.NoError(t, err)
	require.Len(t, client.WorkoutSchedule, 2)
	assert.Equal(t, "Squat", client.WorkoutSchedule[0].Exercises[0].Name)

	_, err = svc.SetWorkoutSchedule(ctx, created.ID, identity.WorkoutScheduleInput{
		WorkoutSchedule: []identity.WorkoutDayInput{{Day: "Monday"}, {Day: "Monday"}},
	})
	var verr *identity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "workoutSchedule", verr.Fields[0].Field)

	_, err = svc.SetWorkoutSchedule(ctx, created.ID, identity.WorkoutScheduleInput{
		WorkoutSchedule: []identity.WorkoutDayInput{{Day: "Funday"}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "workoutSchedule[0].day", verr.Fields[0].Field)
}

func TestAppendAndListLogs(t *testing.T) {
	svc, c := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	for i := 0; i < 35; i++ {
		date := c.now.Add(time.Duration(i) * time.Hour)
		_, err := svc.AppendLog(ctx, created.ID, identity.LogInput{
			Date:   &date,
			Weight: float(80),
			StrengthProgress: []identity.StrengthInput{
				{Exercise: "Bench", MaxWeight: float(60 + float64(i))},
			},
			Notes: fmt.Sprintf("log %d", i),
		})
		require.NoError(t, err)
	}

	logs, err := svc.ListLogs(ctx, created.ID, 100)
	require.NoError(t, err)
	require.Len(t, logs, identity.MaxLogPage)
	assert.Equal(t, "log 34", logs[0].Notes)
	assert.Equal(t, "log 5", logs[len(logs)-1].Notes)

	logs, err = svc.ListLogs(ctx, created.ID, 3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestAppendLogDefaultsDate(t *testing.T) {
	svc, c := newService(t)
	created := signup(t, svc)

	log, err := svc.AppendLog(context.Background(), created.ID, identity.LogInput{
		Weight:           float(72.5),
		StrengthProgress: []identity.StrengthInput{{Exercise: "Row", MaxWeight: float(50)}},
	})
	require.NoError(t, err)
	assert.Equal(t, c.now, log.Date)
	assert.Equal(t, created.ID, log.ClientID)
}

func TestAppendLogRejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	var verr *identity.ValidationError
	_, err := svc.AppendLog(ctx, created.ID, identity.LogInput{Weight: float(70), StrengthProgress: []identity.StrengthInput{}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "strengthProgress", verr.Fields[0].Field)

	_, err = svc.AppendLog(ctx, created.ID, identity.LogInput{
		StrengthProgress: []identity.StrengthInput{{Exercise: "Row", MaxWeight: float(50)}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weight", verr.Fields[0].Field)

	_, err = svc.AppendLog(ctx, "missing", identity.LogInput{
		Weight:           float(70),
		StrengthProgress: []identity.StrengthInput{{Exercise: "Row", MaxWeight: float(50)}},
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created := signup(t, svc)

	found, err := svc.LookupLocal(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	require.NoError(t, svc.ResetPassword(ctx, created.ID, "brand-new-pass"))
	_, err = svc.VerifyLocalCredentials(ctx, "jane@example.com", "hunter2!!")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.VerifyLocalCredentials(ctx, "jane@example.com", "brand-new-pass")
	assert.NoError(t, err)

	var verr *identity.ValidationError
	assert.ErrorAs(t, svc.ResetPassword(ctx, created.ID, "short"), &verr)

	google, err := svc.FindOrCreateFederatedIdentity(ctx, identity.FederatedProfile{ExternalID: "g-9", Email: "g@example.com"})
	require.NoError(t, err)
	_, err = svc.LookupLocal(ctx, google.Email)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, svc.ResetPassword(ctx, google.ID, "brand-new-pass"), model.ErrInvalidCredentials)
}
