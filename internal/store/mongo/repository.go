// Package mongo stores users and exercises in MongoDB collections.
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/exercisetracker/internal/domain"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
}

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Username    string             `bson:"username"`
	Description string             `bson:"description"`
	Duration    *int               `bson:"duration"`
	Date        *time.Time         `bson:"date"`
}

// Repository provides MongoDB-backed persistence for the tracker.
type Repository struct {
	client    *mongo.Client
	users     *mongo.Collection
	exercises *mongo.Collection
}

// Connect dials uri, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongo")
	}

	repo := NewRepository(client, database)
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

// NewRepository constructs a Repository over an existing client.
func NewRepository(client *mongo.Client, database string) *Repository {
	db := client.Database(database)
	return &Repository{
		client:    client,
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
	}
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	_, err := r.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
	})
	return errors.Wrap(err, "create exercises index")
}

// Close disconnects the client.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, domain.User{ID: doc.ID.Hex(), Username: doc.Username})
	}
	return users, nil
}

// CreateUser implements domain.Repository.
func (r *Repository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	res, err := r.users.InsertOne(ctx, userDocument{Username: username})
	if err != nil {
		return domain.User{}, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.User{}, errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return domain.User{ID: oid.Hex(), Username: username}, nil
}

// GetUser implements domain.Repository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.User{ID: doc.ID.Hex(), Username: doc.Username}, nil
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	userID, err := primitive.ObjectIDFromHex(exercise.UserID)
	if err != nil {
		return domain.Exercise{}, errors.Wrapf(err, "exercise user id %q", exercise.UserID)
	}

	doc := exerciseDocument{
		UserID:      userID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration.Ptr(),
		Date:        exercise.Date.Ptr(),
	}
	res, err := r.exercises.InsertOne(ctx, doc)
	if err != nil {
		return domain.Exercise{}, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.Exercise{}, errors.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	exercise.ID = oid.Hex()
	return exercise, nil
}

// CountExercises implements domain.Repository.
func (r *Repository) CountExercises(ctx context.Context, filter domain.ExerciseFilter) (int64, error) {
	query, ok := exerciseQuery(filter)
	if !ok {
		return 0, nil
	}
	return r.exercises.CountDocuments(ctx, query)
}

// FindExercises implements domain.Repository. A limit of zero means no cap.
func (r *Repository) FindExercises(ctx context.Context, filter domain.ExerciseFilter, limit int64) ([]domain.Exercise, error) {
	query, ok := exerciseQuery(filter)
	if !ok {
		return []domain.Exercise{}, nil
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.exercises.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []exerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Exercise, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toExercise(doc))
	}
	return out, nil
}

// Purge implements domain.Repository.
func (r *Repository) Purge(ctx context.Context) (domain.PurgeResult, error) {
	users, err := r.users.DeleteMany(ctx, bson.D{})
	if err != nil {
		return domain.PurgeResult{}, errors.Wrap(err, "delete users")
	}
	exercises, err := r.exercises.DeleteMany(ctx, bson.D{})
	if err != nil {
		return domain.PurgeResult{Users: users.DeletedCount}, errors.Wrap(err, "delete exercises")
	}
	return domain.PurgeResult{Users: users.DeletedCount, Exercises: exercises.DeletedCount}, nil
}

// exerciseQuery translates the filter into a Mongo query. It reports false
// when the user id cannot match any document.
func exerciseQuery(filter domain.ExerciseFilter) (bson.M, bool) {
	userID, err := primitive.ObjectIDFromHex(filter.UserID)
	if err != nil {
		return nil, false
	}

	query := bson.M{"user_id": userID}
	if filter.From == nil && filter.To == nil {
		return query, true
	}

	bounds := bson.M{}
	if filter.From != nil {
		bounds["$gte"] = *filter.From
	}
	if filter.To != nil {
		bounds["$lte"] = *filter.To
	}
	query["date"] = bounds
	return query, true
}

func toExercise(doc exerciseDocument) domain.Exercise {
	return domain.Exercise{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID.Hex(),
		Username:    doc.Username,
		Description: doc.Description,
		Duration:    domain.IntFromPtr(doc.Duration),
		Date:        domain.DateFromPtr(doc.Date),
	}
}
