package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tourlingo/relay/domain/entities"
	"github.com/tourlingo/relay/domain/repositories"
)

// ErrTourNotFound is returned when no tour matches the given id or join
// code.
var ErrTourNotFound = errors.New("tour not found")

type TourRepository struct {
	collection *mongo.Collection
}

// NewTourRepository creates a new MongoDB tour repository
func NewTourRepository(db *mongo.Database) repositories.TourRepository {
	return &TourRepository{
		collection: db.Collection("tours"),
	}
}

// Create implements repositories.TourRepository
func (r *TourRepository) Create(ctx context.Context, tour *entities.Tour) error {
	if tour == nil {
		return errors.New("tour cannot be nil")
	}

	if tour.CreatedAt.IsZero() {
		tour.CreatedAt = time.Now()
	}
	if tour.Status == "" {
		tour.Status = entities.TourStatusScheduled
	}

	doc := bson.M{
		"name":           tour.Name,
		"join_code":      tour.JoinCode,
		"guide_name":     tour.GuideName,
		"guide_language": tour.GuideLanguage,
		"status":         tour.Status,
		"created_at":     tour.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create tour: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tour.ID = oid.Hex()
	}

	return nil
}

// GetByID implements repositories.TourRepository
func (r *TourRepository) GetByID(ctx context.Context, id string) (*entities.Tour, error) {
	if id == "" {
		return nil, errors.New("tour ID cannot be empty")
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tour ID format: %w", err)
	}

	var tour entities.Tour
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to get tour %s: %w", id, err)
	}
	tour.ID = id

	return &tour, nil
}

// GetByJoinCode implements repositories.TourRepository
func (r *TourRepository) GetByJoinCode(ctx context.Context, code string) (*entities.Tour, error) {
	if code == "" {
		return nil, errors.New("join code cannot be empty")
	}

	var tour entities.Tour
	err := r.collection.FindOne(ctx, bson.M{"join_code": code}).Decode(&tour)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to get tour by join code: %w", err)
	}

	return &tour, nil
}

// List implements repositories.TourRepository
func (r *TourRepository) List(ctx context.Context) ([]*entities.Tour, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer cursor.Close(ctx)

	var tours []*entities.Tour
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}

	return tours, nil
}

// Update implements repositories.TourRepository
func (r *TourRepository) Update(ctx context.Context, tour *entities.Tour) error {
	if tour == nil {
		return errors.New("tour cannot be nil")
	}
	if tour.ID == "" {
		return errors.New("tour ID cannot be empty")
	}

	objectID, err := primitive.ObjectIDFromHex(tour.ID)
	if err != nil {
		return fmt.Errorf("invalid tour ID format: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"name":           tour.Name,
			"join_code":      tour.JoinCode,
			"guide_name":     tour.GuideName,
			"guide_language": tour.GuideLanguage,
			"status":         tour.Status,
			"started_at":     tour.StartedAt,
			"ended_at":       tour.EndedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrTourNotFound
	}

	return nil
}
