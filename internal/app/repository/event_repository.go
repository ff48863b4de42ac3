package repository

import (
	"context"

	"github.com/sifan077/PulseTrack/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventRepository defines the append-only write path for analytics events.
type EventRepository interface {
	// Insert stores one enriched event. A duplicate event_id is absorbed as
	// a no-op and reported via the deduped flag, never as an error.
	Insert(ctx context.Context, event *model.Event) (deduped bool, err error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository returns a GORM-backed EventRepository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Insert(ctx context.Context, event *model.Event) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 0, nil
}
