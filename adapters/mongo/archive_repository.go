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

type ArchiveRepository struct {
	collection *mongo.Collection
}

// NewArchiveRepository creates a new MongoDB archive repository
func NewArchiveRepository(db *mongo.Database) repositories.ArchiveRepository {
	return &ArchiveRepository{
		collection: db.Collection("utterances"),
	}
}

// Append implements repositories.ArchiveRepository
func (r *ArchiveRepository) Append(ctx context.Context, utterance *entities.ArchivedUtterance) error {
	if utterance == nil {
		return errors.New("utterance cannot be nil")
	}
	if utterance.TourID == "" {
		return errors.New("tour ID cannot be empty")
	}

	if utterance.SpokenAt.IsZero() {
		utterance.SpokenAt = time.Now()
	}

	doc := bson.M{
		"tour_id":            utterance.TourID,
		"sender_name":        utterance.SenderName,
		"sender_language":    utterance.SenderLanguage,
		"original_text":      utterance.OriginalText,
		"filtered_text":      utterance.FilteredText,
		"filtered":           utterance.Filtered,
		"filter_reason":      utterance.FilterReason,
		"translations":       utterance.Translations,
		"processing_time_ms": utterance.ProcessingTimeMs,
		"spoken_at":          utterance.SpokenAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to archive utterance: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		utterance.ID = oid.Hex()
	}

	return nil
}

// ListByTour implements repositories.ArchiveRepository
func (r *ArchiveRepository) ListByTour(ctx context.Context, tourID string) ([]*entities.ArchivedUtterance, error) {
	if tourID == "" {
		return nil, errors.New("tour ID cannot be empty")
	}

	opts := options.Find().SetSort(bson.M{"spoken_at": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"tour_id": tourID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list utterances for tour %s: %w", tourID, err)
	}
	defer cursor.Close(ctx)

	var utterances []*entities.ArchivedUtterance
	if err := cursor.All(ctx, &utterances); err != nil {
		return nil, fmt.Errorf("failed to decode utterances: %w", err)
	}

	return utterances, nil
}
