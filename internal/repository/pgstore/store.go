// Package pgstore persists identity records and progress logs in Postgres.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fittrack/api/internal/db"
	"fittrack/api/internal/model"
)

const uniqueViolation = "23505"

const clientColumns = `
	c.id::text, c.first_name, c.last_name, c.email, COALESCE(c.password_hash, ''),
	COALESCE(c.google_id, ''), c.auth_method, c.email_verified,
	COALESCE(c.verification_token, ''), c.verification_expires,
	c.target_goals, c.workout_schedule,
	ARRAY(SELECT l.id::text FROM progress_logs l WHERE l.client_id = c.id ORDER BY l.created_at, l.id),
	c.created_at, c.updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) CreateClient(ctx context.Context, client model.Client) (model.Client, error) {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (
			id, first_name, last_name, email, password_hash, google_id, auth_method,
			email_verified, verification_token, verification_expires,
			target_goals, workout_schedule, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, insertArgs(client)...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Client{}, model.ErrDuplicateEmail
		}
		return model.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return s.GetClientByID(ctx, client.ID)
}

func (s *Store) GetClientByID(ctx context.Context, id string) (model.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Client{}, model.ErrNotFound
	}
	return s.queryClient(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.id = $1`, id)
}

func (s *Store) GetClientByEmail(ctx context.Context, email string) (model.Client, error) {
	return s.queryClient(ctx, `SELECT `+clientColumns+` FROM clients c WHERE c.email = $1`, email)
}

func (s *Store) FindOrCreateFederated(ctx context.Context, client model.Client) (model.Client, error) {
	const lookup = `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.email = $1 OR c.google_id = $2
		ORDER BY c.created_at LIMIT 1`

	existing, err := s.queryClient(ctx, lookup, client.Email, client.GoogleID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Client{}, err
	}

	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO clients (
			id, first_name, last_name, email, password_hash, google_id, auth_method,
			email_verified, verification_token, verification_expires,
			target_goals, workout_schedule, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING
	`, insertArgs(client)...)
	if err != nil {
		return model.Client{}, fmt.Errorf("insert federated client: %w", err)
	}
	return s.queryClient(ctx, lookup, client.Email, client.GoogleID)
}

func (s *Store) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (model.Client, error) {
	client, err := s.queryClient(ctx, `
		UPDATE clients c
		SET email_verified = TRUE, verification_token = NULL, verification_expires = NULL, updated_at = $2
		WHERE c.verification_token = $1 AND c.verification_expires > $2
		RETURNING `+clientColumns, token, now)
	if errors.Is(err, model.ErrNotFound) {
		return model.Client{}, model.ErrInvalidOrExpiredToken
	}
	return client, err
}

func (s *Store) UpdateGoals(ctx context.Context, id string, goals model.TargetGoals, now time.Time) (model.TargetGoals, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.TargetGoals{}, model.ErrNotFound
	}
	var merged model.TargetGoals
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var current goalsJSON
		err := tx.QueryRow(ctx, `SELECT target_goals FROM clients WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock client goals: %w", err)
		}
		merged = current.model().Merge(goals)
		_, err = tx.Exec(ctx, `UPDATE clients SET target_goals = $2, updated_at = $3 WHERE id = $1`,
			id, toGoalsJSON(merged), now)
		if err != nil {
			return fmt.Errorf("update client goals: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.TargetGoals{}, err
	}
	return merged, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate, now time.Time) (model.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Client{}, model.ErrNotFound
	}
	return s.queryClient(ctx, `
		UPDATE clients c
		SET first_name = COALESCE($2, c.first_name), last_name = COALESCE($3, c.last_name), updated_at = $4
		WHERE c.id = $1
		RETURNING `+clientColumns, id, update.FirstName, update.LastName, now)
}

func (s *Store) SetWorkoutSchedule(ctx context.Context, id string, schedule []model.WorkoutDay, now time.Time) (model.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Client{}, model.ErrNotFound
	}
	return s.queryClient(ctx, `
		UPDATE clients c SET workout_schedule = $2, updated_at = $3
		WHERE c.id = $1
		RETURNING `+clientColumns, id, toScheduleJSON(schedule), now)
}

func (s *Store) SetPasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE clients SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, now)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// AppendLog inserts the log and touches its owner in one transaction.
func (s *Store) AppendLog(ctx context.Context, log model.ProgressLog) (model.ProgressLog, error) {
	if _, err := uuid.Parse(log.ClientID); err != nil {
		return model.ProgressLog{}, model.ErrNotFound
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE clients SET updated_at = $2 WHERE id = $1`, log.ClientID, log.CreatedAt)
		if err != nil {
			return fmt.Errorf("touch log owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO progress_logs (id, client_id, date, weight, strength_progress, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, log.ID, log.ClientID, log.Date, log.Weight, toStrengthJSON(log.StrengthProgress), log.Notes, log.CreatedAt, log.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert progress log: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.ProgressLog{}, err
	}
	return log, nil
}

func (s *Store) ListLogs(ctx context.Context, clientID string, limit int) ([]model.ProgressLog, error) {
	logs := []model.ProgressLog{}
	if _, err := uuid.Parse(clientID); err != nil {
		return logs, nil
	}
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, client_id::text, date, weight, strength_progress, notes, created_at, updated_at
		FROM progress_logs
		WHERE client_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2
	`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query progress logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			log      model.ProgressLog
			strength []strengthJSON
		)
		if err := rows.Scan(&log.ID, &log.ClientID, &log.Date, &log.Weight, &strength, &log.Notes, &log.CreatedAt, &log.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress log: %w", err)
		}
		log.Date = log.Date.UTC()
		log.CreatedAt = log.CreatedAt.UTC()
		log.UpdatedAt = log.UpdatedAt.UTC()
		log.StrengthProgress = strengthModel(strength)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress logs: %w", err)
	}
	return logs, nil
}

func (s *Store) queryClient(ctx context.Context, query string, args ...any) (model.Client, error) {
	var (
		c        model.Client
		method   string
		expires  *time.Time
		goals    goalsJSON
		schedule []workoutDayJSON
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PasswordHash,
		&c.GoogleID,
		&method,
		&c.EmailVerified,
		&c.VerificationToken,
		&expires,
		&goals,
		&schedule,
		&c.Logs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Client{}, model.ErrNotFound
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("query client: %w", err)
	}
	c.AuthMethod = model.AuthMethod(method)
	if expires != nil {
		utc := expires.UTC()
		c.VerificationExpires = &utc
	}
	c.TargetGoals = goals.model()
	c.WorkoutSchedule = scheduleModel(schedule)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func insertArgs(c model.Client) []any {
	return []any{
		c.ID,
		c.FirstName,
		c.LastName,
		c.Email,
		nullable(c.PasswordHash),
		nullable(c.GoogleID),
		string(c.AuthMethod),
		c.EmailVerified,
		nullable(c.VerificationToken),
		c.VerificationExpires,
		toGoalsJSON(c.TargetGoals),
		toScheduleJSON(c.WorkoutSchedule),
		c.CreatedAt,
		c.UpdatedAt,
	}
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
