package repositories

import (
	"context"

	"github.com/tourlingo/relay/domain/entities"
)

// TourRepository persists tours. The translation pipeline itself runs
// without persistence; only the surrounding API consumes this.
type TourRepository interface {
	Create(ctx context.Context, tour *entities.Tour) error
	GetByID(ctx context.Context, id string) (*entities.Tour, error)
	GetByJoinCode(ctx context.Context, code string) (*entities.Tour, error)
	List(ctx context.Context) ([]*entities.Tour, error)
	Update(ctx context.Context, tour *entities.Tour) error
}

// ArchiveRepository persists processed utterances for the tour archive.
type ArchiveRepository interface {
	Append(ctx context.Context, utterance *entities.ArchivedUtterance) error
	ListByTour(ctx context.Context, tourID string) ([]*entities.ArchivedUtterance, error)
}
