// Package mongostore persists identity records and progress logs in MongoDB
// under the collection names existing deployments already use.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"fittrack/api/internal/model"
)

const (
	clientsCollection = "clients"
	logsCollection    = "progresslogs"
)

type Store struct {
	client  *mongo.Client
	clients *mongo.Collection
	logs    *mongo.Collection
}

// Connect dials uri and verifies the deployment answers a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// New binds the store to database dbName and ensures its indexes exist.
func New(ctx context.Context, client *mongo.Client, dbName string) (*Store, error) {
	db := client.Database(dbName)
	s := &Store{
		client:  client,
		clients: db.Collection(clientsCollection),
		logs:    db.Collection(logsCollection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.clients.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "googleId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "verificationToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create client indexes: %w", err)
	}
	_, err = s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "client", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create log indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) CreateClient(ctx context.Context, client model.Client) (model.Client, error) {
	doc := toClientDoc(client)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := s.clients.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Client{}, model.ErrDuplicateEmail
		}
		return model.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) GetClientByID(ctx context.Context, id string) (model.Client, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Client{}, model.ErrNotFound
	}
	return s.findClient(ctx, bson.M{"_id": oid})
}

func (s *Store) GetClientByEmail(ctx context.Context, email string) (model.Client, error) {
	return s.findClient(ctx, bson.M{"email": email})
}

func (s *Store) FindOrCreateFederated(ctx context.Context, client model.Client) (model.Client, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": client.Email},
		bson.M{"googleId": client.GoogleID},
	}}
	existing, err := s.findClient(ctx, filter)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Client{}, err
	}

	created, err := s.CreateClient(ctx, client)
	if errors.Is(err, model.ErrDuplicateEmail) {
		// Lost a race with a concurrent first login.
		return s.findClient(ctx, filter)
	}
	return created, err
}

func (s *Store) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (model.Client, error) {
	filter := bson.M{
		"verificationToken":   token,
		"verificationExpires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"emailVerified": true, "updatedAt": now},
		"$unset": bson.M{"verificationToken": "", "verificationExpires": ""},
	}
	var doc clientDoc
	err := s.clients.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Client{}, model.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("consume verification token: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) UpdateGoals(ctx context.Context, id string, goals model.TargetGoals, now time.Time) (model.TargetGoals, error) {
	set := bson.M{"updatedAt": now}
	if goals.Calories != nil {
		set["targetGoals.calories"] = *goals.Calories
	}
	if goals.Macros.Protein != nil {
		set["targetGoals.macros.protein"] = *goals.Macros.Protein
	}
	if goals.Macros.Carbs != nil {
		set["targetGoals.macros.carbs"] = *goals.Macros.Carbs
	}
	if goals.Macros.Fats != nil {
		set["targetGoals.macros.fats"] = *goals.Macros.Fats
	}
	doc, err := s.updateClient(ctx, id, bson.M{"$set": set})
	if err != nil {
		return model.TargetGoals{}, err
	}
	if doc.TargetGoals == nil {
		return model.TargetGoals{}, nil
	}
	return doc.TargetGoals.model(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate, now time.Time) (model.Client, error) {
	set := bson.M{"updatedAt": now}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	doc, err := s.updateClient(ctx, id, bson.M{"$set": set})
	if err != nil {
		return model.Client{}, err
	}
	return doc.model(), nil
}

func (s *Store) SetWorkoutSchedule(ctx context.Context, id string, schedule []model.WorkoutDay, now time.Time) (model.Client, error) {
	days := toScheduleDoc(schedule)
	if days == nil {
		days = []workoutDayDoc{}
	}
	doc, err := s.updateClient(ctx, id, bson.M{"$set": bson.M{"workoutSchedule": days, "updatedAt": now}})
	if err != nil {
		return model.Client{}, err
	}
	return doc.model(), nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id, hash string, now time.Time) error {
	_, err := s.updateClient(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": now}})
	return err
}

// AppendLog inserts the log, then pushes its id onto the owner. When the push
// fails or finds no owner the inserted log is deleted again.
func (s *Store) AppendLog(ctx context.Context, log model.ProgressLog) (model.ProgressLog, error) {
	owner, err := primitive.ObjectIDFromHex(log.ClientID)
	if err != nil {
		return model.ProgressLog{}, model.ErrNotFound
	}
	doc := toLogDoc(log, owner)
	doc.ID = primitive.NewObjectID()
	if _, err := s.logs.InsertOne(ctx, doc); err != nil {
		return model.ProgressLog{}, fmt.Errorf("insert progress log: %w", err)
	}

	res, err := s.clients.UpdateOne(ctx, bson.M{"_id": owner}, bson.M{
		"$push": bson.M{"logs": doc.ID},
		"$set":  bson.M{"updatedAt": log.CreatedAt},
	})
	if err == nil && res.MatchedCount == 1 {
		return doc.model(), nil
	}

	if _, delErr := s.logs.DeleteOne(context.WithoutCancel(ctx), bson.M{"_id": doc.ID}); delErr != nil {
		return model.ProgressLog{}, fmt.Errorf("remove orphan progress log %s: %w", doc.ID.Hex(), delErr)
	}
	if err != nil {
		return model.ProgressLog{}, fmt.Errorf("link progress log: %w", err)
	}
	return model.ProgressLog{}, model.ErrNotFound
}

func (s *Store) ListLogs(ctx context.Context, clientID string, limit int) ([]model.ProgressLog, error) {
	owner, err := primitive.ObjectIDFromHex(clientID)
	if err != nil {
		return []model.ProgressLog{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.logs.Find(ctx, bson.M{"client": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("find progress logs: %w", err)
	}
	defer cur.Close(ctx)

	logs := make([]model.ProgressLog, 0, limit)
	for cur.Next(ctx) {
		var doc logDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode progress log: %w", err)
		}
		logs = append(logs, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress logs: %w", err)
	}
	return logs, nil
}

func (s *Store) findClient(ctx context.Context, filter interface{}) (model.Client, error) {
	var doc clientDoc
	err := s.clients.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Client{}, model.ErrNotFound
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("find client: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) updateClient(ctx context.Context, id string, update bson.M) (clientDoc, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return clientDoc{}, model.ErrNotFound
	}
	var doc clientDoc
	err = s.clients.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return clientDoc{}, model.ErrNotFound
	}
	if err != nil {
		return clientDoc{}, fmt.Errorf("update client: %w", err)
	}
	return doc, nil
}
