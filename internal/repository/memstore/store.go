// Package memstore keeps identity records in process memory. It backs the
// memory:// database URL for local development and the HTTP tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fittrack/api/internal/model"
)

type Store struct {
	mu      sync.RWMutex
	clients map[string]model.Client
	logs    map[string][]model.ProgressLog
}

func New() *Store {
	return &Store{
		clients: make(map[string]model.Client),
		logs:    make(map[string][]model.ProgressLog),
	}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) CreateClient(_ context.Context, client model.Client) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByEmail(client.Email); ok {
		return model.Client{}, model.ErrDuplicateEmail
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	s.clients[client.ID] = cloneClient(client)
	return cloneClient(client), nil
}

func (s *Store) GetClientByID(_ context.Context, id string) (model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return model.Client{}, model.ErrNotFound
	}
	return cloneClient(client), nil
}

func (s *Store) GetClientByEmail(_ context.Context, email string) (model.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.findByEmail(email)
	if !ok {
		return model.Client{}, model.ErrNotFound
	}
	return cloneClient(client), nil
}

func (s *Store) FindOrCreateFederated(_ context.Context, client model.Client) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.clients {
		if existing.Email == client.Email || (client.GoogleID != "" && existing.GoogleID == client.GoogleID) {
			return cloneClient(existing), nil
		}
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	s.clients[client.ID] = cloneClient(client)
	return cloneClient(client), nil
}

func (s *Store) ConsumeVerificationToken(_ context.Context, token string, now time.Time) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, client := range s.clients {
		if client.VerificationToken != token || client.VerificationExpires == nil || !client.VerificationExpires.After(now) {
			continue
		}
		client.EmailVerified = true
		client.VerificationToken = ""
		client.VerificationExpires = nil
		client.UpdatedAt = now
		s.clients[id] = client
		return cloneClient(client), nil
	}
	return model.Client{}, model.ErrInvalidOrExpiredToken
}

func (s *Store) UpdateGoals(_ context.Context, id string, goals model.TargetGoals, now time.Time) (model.TargetGoals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return model.TargetGoals{}, model.ErrNotFound
	}
	client.TargetGoals = client.TargetGoals.Merge(goals)
	client.UpdatedAt = now
	s.clients[id] = client
	return cloneGoals(client.TargetGoals), nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, update model.ProfileUpdate, now time.Time) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return model.Client{}, model.ErrNotFound
	}
	if update.FirstName != nil {
		client.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		client.LastName = *update.LastName
	}
	client.UpdatedAt = now
	s.clients[id] = client
	return cloneClient(client), nil
}

func (s *Store) SetWorkoutSchedule(_ context.Context, id string, schedule []model.WorkoutDay, now time.Time) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return model.Client{}, model.ErrNotFound
	}
	client.WorkoutSchedule = cloneSchedule(schedule)
	client.UpdatedAt = now
	s.clients[id] = client
	return cloneClient(client), nil
}

func (s *Store) SetPasswordHash(_ context.Context, id, hash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return model.ErrNotFound
	}
	client.PasswordHash = hash
	client.UpdatedAt = now
	s.clients[id] = client
	return nil
}

func (s *Store) AppendLog(_ context.Context, log model.ProgressLog) (model.ProgressLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[log.ClientID]
	if !ok {
		return model.ProgressLog{}, model.ErrNotFound
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log = cloneLog(log)
	s.logs[log.ClientID] = append(s.logs[log.ClientID], log)
	client.Logs = append(client.Logs, log.ID)
	client.UpdatedAt = log.CreatedAt
	s.clients[client.ID] = client
	return cloneLog(log), nil
}

func (s *Store) ListLogs(_ context.Context, clientID string, limit int) ([]model.ProgressLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]model.ProgressLog, 0, len(s.logs[clientID]))
	for _, log := range s.logs[clientID] {
		logs = append(logs, cloneLog(log))
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.After(logs[j].Date)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) findByEmail(email string) (model.Client, bool) {
	for _, client := range s.clients {
		if client.Email == email {
			return client, true
		}
	}
	return model.Client{}, false
}

func cloneClient(c model.Client) model.Client {
	if c.VerificationExpires != nil {
		expires := *c.VerificationExpires
		c.VerificationExpires = &expires
	}
	c.TargetGoals = cloneGoals(c.TargetGoals)
	c.WorkoutSchedule = cloneSchedule(c.WorkoutSchedule)
	c.Logs = append([]string(nil), c.Logs...)
	return c
}

func cloneGoals(g model.TargetGoals) model.TargetGoals {
	return model.TargetGoals{
		Calories: cloneFloat(g.Calories),
		Macros: model.Macros{
			Protein: cloneFloat(g.Macros.Protein),
			Carbs:   cloneFloat(g.Macros.Carbs),
			Fats:    cloneFloat(g.Macros.Fats),
		},
	}
}

func cloneSchedule(days []model.WorkoutDay) []model.WorkoutDay {
	if days == nil {
		return nil
	}
	out := make([]model.WorkoutDay, 0, len(days))
	for _, day := range days {
		out = append(out, model.WorkoutDay{
			Day:       day.Day,
			Exercises: append([]model.WorkoutExercise(nil), day.Exercises...),
		})
	}
	return out
}

func cloneLog(l model.ProgressLog) model.ProgressLog {
	entries := make([]model.StrengthEntry, 0, len(l.StrengthProgress))
	for _, e := range l.StrengthProgress {
		if e.Reps != nil {
			reps := *e.Reps
			e.Reps = &reps
		}
		entries = append(entries, e)
	}
	l.StrengthProgress = entries
	return l
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
