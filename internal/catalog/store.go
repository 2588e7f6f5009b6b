package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DuplicateError lists product ids that already exist.
type DuplicateError struct {
	IDs []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("products already exist: %v", e.IDs)
}

// Store persists products. Get and Update return (nil, nil) for an unknown id; Delete
// reports whether a product was removed.
type Store interface {
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	InsertMany(ctx context.Context, products []Product) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, u ProductUpdate) (*Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// MongoStore keeps products in the "products" collection.
type MongoStore struct {
	collection *mongo.Collection
	nowFunc    func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection("products"),
		nowFunc:    time.Now,
	}
}

// CreateIndexes makes the business id unique.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	cur, err := s.collection.Find(ctx, bson.M{"id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to look up product ids: %w", err)
	}
	var found []struct {
		ID string `bson:"id"`
	}
	if err := cur.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode product ids: %w", err)
	}
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.ID)
	}
	return out, nil
}

// InsertMany writes all products. A unique index violation becomes a *DuplicateError.
func (s *MongoStore) InsertMany(ctx context.Context, products []Product) error {
	now := s.nowFunc().UTC()
	docs := make([]interface{}, 0, len(products))
	for i := range products {
		products[i].CreatedAt = now
		products[i].UpdatedAt = now
		docs = append(docs, products[i])
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			ids := make([]string, 0, len(products))
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			existing, lookupErr := s.ExistingIDs(ctx, ids)
			if lookupErr != nil {
				existing = ids
			}
			return &DuplicateError{IDs: existing}
		}
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Product, error) {
	cur, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := []Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := s.collection.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, u ProductUpdate) (*Product, error) {
	if u.Empty() {
		return s.Get(ctx, id)
	}
	set := bson.M{"updatedAt": s.nowFunc().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Image != nil {
		set["image"] = *u.Image
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.InStock != nil {
		set["inStock"] = *u.InStock
	}
	if u.ColorOptions != nil {
		set["colorOptions"] = *u.ColorOptions
	}

	var p Product
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return res.DeletedCount > 0, nil
}
