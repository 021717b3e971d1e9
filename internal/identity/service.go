package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"fittrack/api/internal/crypto"
	"fittrack/api/internal/model"
)

// MaxLogPage bounds a single progress log listing.
const MaxLogPage = 30

const unknownName = "Unknown"

// Service implements the credential and progress operations on top of a Store.
type Service struct {
	store           Store
	validate        *validator.Validate
	verificationTTL time.Duration
	now             func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store Store, verificationTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:           store,
		validate:        newValidator(),
		verificationTTL: verificationTTL,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// CreateLocalIdentity registers a password account. The returned record still
// carries the hash and verification token; callers sanitize before replying.
func (s *Service) CreateLocalIdentity(ctx context.Context, in SignupInput) (model.Client, error) {
	in.normalize()
	if err := s.check(in); err != nil {
		return model.Client{}, err
	}

	if _, err := s.store.GetClientByEmail(ctx, in.Email); err == nil {
		return model.Client{}, model.ErrDuplicateEmail
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Client{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return model.Client{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock()
	expires := now.Add(s.verificationTTL)
	client := model.Client{
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		Email:               in.Email,
		PasswordHash:        hash,
		AuthMethod:          model.AuthMethodLocal,
		EmailVerified:       false,
		VerificationToken:   crypto.NewVerificationToken(),
		VerificationExpires: &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	created, err := s.store.CreateClient(ctx, client)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateEmail) {
			return model.Client{}, err
		}
		return model.Client{}, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

// FindOrCreateFederatedIdentity resolves a Google profile to exactly one record.
func (s *Service) FindOrCreateFederatedIdentity(ctx context.Context, profile FederatedProfile) (model.Client, error) {
	email := NormalizeEmail(profile.Email)
	if profile.ExternalID == "" {
		return model.Client{}, invalid("externalId", "is required")
	}
	if email == "" {
		return model.Client{}, invalid("email", "is required")
	}

	now := s.clock()
	client := model.Client{
		FirstName:     firstNonEmpty(profile.FirstName, unknownName),
		LastName:      firstNonEmpty(profile.LastName, unknownName),
		Email:         email,
		GoogleID:      profile.ExternalID,
		AuthMethod:    model.AuthMethodGoogle,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	resolved, err := s.store.FindOrCreateFederated(ctx, client)
	if err != nil {
		return model.Client{}, fmt.Errorf("resolve federated identity: %w", err)
	}
	return resolved, nil
}

func (s *Service) VerifyLocalCredentials(ctx context.Context, email, password string) (model.Client, error) {
	client, err := s.store.GetClientByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return model.Client{}, err
	}
	if !client.HasPassword() {
		return model.Client{}, model.ErrInvalidCredentials
	}
	if err := crypto.CheckPassword(client.PasswordHash, password); err != nil {
		return model.Client{}, model.ErrInvalidCredentials
	}
	return client, nil
}

func (s *Service) ConsumeVerificationToken(ctx context.Context, token string) (model.Client, error) {
	if token == "" {
		return model.Client{}, model.ErrInvalidOrExpiredToken
	}
	return s.store.ConsumeVerificationToken(ctx, token, s.clock())
}

func (s *Service) Profile(ctx context.Context, id string) (model.Client, error) {
	return s.store.GetClientByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (model.Client, error) {
	in.FirstName = trimPtr(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	if in.FirstName == nil && in.LastName == nil {
		return model.Client{}, invalid("profile", "no changes provided")
	}
	if err := s.check(in); err != nil {
		return model.Client{}, err
	}
	if in.FirstName != nil && *in.FirstName == "" {
		return model.Client{}, invalid("firstName", "is required")
	}
	if in.LastName != nil && *in.LastName == "" {
		return model.Client{}, invalid("lastName", "is required")
	}
	return s.store.UpdateProfile(ctx, id, model.ProfileUpdate{FirstName: in.FirstName, LastName: in.LastName}, s.clock())
}

// UpdateGoals sets only the provided targets; absent fields keep their value.
func (s *Service) UpdateGoals(ctx context.Context, id string, in GoalsInput) (model.TargetGoals, error) {
	if in.empty() {
		return model.TargetGoals{}, invalid("goals", "no goals provided")
	}
	if err := s.check(in); err != nil {
		return model.TargetGoals{}, err
	}
	update := model.TargetGoals{
		Calories: in.Calories,
		Macros: model.Macros{
			Protein: in.Protein,
			Carbs:   in.Carbs,
			Fats:    in.Fats,
		},
	}
	return s.store.UpdateGoals(ctx, id, update, s.clock())
}

func (s *Service) SetWorkoutSchedule(ctx context.Context, id string, in WorkoutScheduleInput) (model.Client, error) {
	if err := s.check(in); err != nil {
		return model.Client{}, err
	}
	schedule := make([]model.WorkoutDay, 0, len(in.WorkoutSchedule))
	for _, day := range in.WorkoutSchedule {
		exercises := make([]model.WorkoutExercise, 0, len(day.Exercises))
		for _, ex := range day.Exercises {
			exercises = append(exercises, model.WorkoutExercise{
				Name:   ex.Name,
				Sets:   ex.Sets,
				Reps:   ex.Reps,
				Weight: ex.Weight,
			})
		}
		schedule = append(schedule, model.WorkoutDay{Day: day.Day, Exercises: exercises})
	}
	return s.store.SetWorkoutSchedule(ctx, id, schedule, s.clock())
}

func (s *Service) AppendLog(ctx context.Context, id string, in LogInput) (model.ProgressLog, error) {
	if err := s.check(in); err != nil {
		return model.ProgressLog{}, err
	}
	now := s.clock()
	date := now
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}
	entries := make([]model.StrengthEntry, 0, len(in.StrengthProgress))
	for _, sp := range in.StrengthProgress {
		entries = append(entries, model.StrengthEntry{
			Exercise:  sp.Exercise,
			MaxWeight: *sp.MaxWeight,
			Reps:      sp.Reps,
		})
	}
	log := model.ProgressLog{
		ClientID:         id,
		Date:             date,
		Weight:           *in.Weight,
		StrengthProgress: entries,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return s.store.AppendLog(ctx, log)
}

// ListLogs returns at most MaxLogPage logs, newest first.
func (s *Service) ListLogs(ctx context.Context, id string, limit int) ([]model.ProgressLog, error) {
	if limit <= 0 || limit > MaxLogPage {
		limit = MaxLogPage
	}
	return s.store.ListLogs(ctx, id, limit)
}

// LookupLocal finds a password account by email for the reset flow.
func (s *Service) LookupLocal(ctx context.Context, email string) (model.Client, error) {
	client, err := s.store.GetClientByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return model.Client{}, err
	}
	if !client.HasPassword() {
		return model.Client{}, model.ErrNotFound
	}
	return client, nil
}

func (s *Service) ResetPassword(ctx context.Context, id, password string) error {
	if err := s.check(passwordInput{Password: password}); err != nil {
		return err
	}
	client, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		return err
	}
	if !client.HasPassword() {
		return model.ErrInvalidCredentials
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.SetPasswordHash(ctx, id, hash, s.clock())
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
