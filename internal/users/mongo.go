package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps users in the "users" collection.
type MongoStore struct {
	collection *mongo.Collection
	nowFunc    func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("users"),
		nowFunc:    time.Now,
	}
}

// CreateIndexes makes email and username unique.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "refreshToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, u *User) error {
	now := s.nowFunc().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (s *MongoStore) FindByRefreshToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"refreshToken": token})
}

func (s *MongoStore) SetRefreshToken(ctx context.Context, id, token string) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, refreshTokenUpdate(token, s.nowFunc().UTC()))
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := s.collection.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// refreshTokenUpdate sets the token, or removes the field when token is empty so the sparse
// index skips logged-out users.
func refreshTokenUpdate(token string, now time.Time) bson.M {
	if token == "" {
		return bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": now},
		}
	}
	return bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": now}}
}
