package identity

import (
	"context"
	"time"

	"fittrack/api/internal/model"
)

// Store is the persistence contract shared by the Mongo, Postgres and memory
// backends. Implementations return the sentinel errors from the model package.
type Store interface {
	// CreateClient assigns an ID when empty and fails with ErrDuplicateEmail.
	CreateClient(ctx context.Context, client model.Client) (model.Client, error)
	GetClientByID(ctx context.Context, id string) (model.Client, error)
	GetClientByEmail(ctx context.Context, email string) (model.Client, error)
	// FindOrCreateFederated resolves by email or Google id and inserts client
	// when neither matches. Concurrent calls must converge on one record.
	FindOrCreateFederated(ctx context.Context, client model.Client) (model.Client, error)
	// ConsumeVerificationToken marks the owner verified and clears the token in
	// one update, provided the token has not expired at now.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (model.Client, error)
	UpdateGoals(ctx context.Context, id string, goals model.TargetGoals, now time.Time) (model.TargetGoals, error)
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate, now time.Time) (model.Client, error)
	SetWorkoutSchedule(ctx context.Context, id string, schedule []model.WorkoutDay, now time.Time) (model.Client, error)
	SetPasswordHash(ctx context.Context, id, hash string, now time.Time) error
	// AppendLog stores the log and records it on the owner, or leaves no trace.
	AppendLog(ctx context.Context, log model.ProgressLog) (model.ProgressLog, error)
	// ListLogs returns the newest logs first.
	ListLogs(ctx context.Context, clientID string, limit int) ([]model.ProgressLog, error)
	Ping(ctx context.Context) error
}
