package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultReservationStore keeps slot reservations. A store returned to a
// WithTypeLock callback is bound to that transaction.
type DefaultReservationStore struct {
	db *gorm.DB
}

func NewDefaultReservationStore(db *gorm.DB) *DefaultReservationStore {
	return &DefaultReservationStore{db: db}
}

func (s *DefaultReservationStore) WithTypeLock(ctx context.Context, typeID string, fn func(pt *domain.PromotionType, tx domain.ReservationStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var typeModel models.PromotionTypeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", typeID).
			First(&typeModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: promotion type %s", domain.ErrNotFound, typeID)
		}
		if err != nil {
			return err
		}
		return fn(mappers.ToDomainPromotionType(&typeModel), &DefaultReservationStore{db: tx})
	})
}

func (s *DefaultReservationStore) ListByType(ctx context.Context, typeID string) ([]*domain.Reservation, error) {
	return s.find(s.db.WithContext(ctx).Where("promotion_type_id = ?", typeID))
}

func (s *DefaultReservationStore) ListOverlapping(ctx context.Context, typeID string, interval domain.Interval) ([]*domain.Reservation, error) {
	return s.find(s.db.WithContext(ctx).
		Where("promotion_type_id = ?", typeID).
		Where("start_at < ? AND end_at > ?", interval.End.UTC(), interval.Start.UTC()))
}

func (s *DefaultReservationStore) ListEndedBy(ctx context.Context, asOf time.Time) ([]*domain.Reservation, error) {
	return s.find(s.db.WithContext(ctx).Where("end_at <= ?", asOf.UTC()))
}

func (s *DefaultReservationStore) GetByRequest(ctx context.Context, requestID string) (*domain.Reservation, error) {
	var model models.SlotReservationModel
	err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: reservation for request %s", domain.ErrNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainReservation(&model), nil
}

func (s *DefaultReservationStore) Create(ctx context.Context, r *domain.Reservation) error {
	return s.db.WithContext(ctx).Create(mappers.ToGORMReservation(r)).Error
}

func (s *DefaultReservationStore) DeleteByRequest(ctx context.Context, requestID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("request_id = ?", requestID).Delete(&models.SlotReservationModel{})
	return res.RowsAffected, res.Error
}

func (s *DefaultReservationStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.SlotReservationModel{})
	return res.RowsAffected, res.Error
}

func (s *DefaultReservationStore) find(query *gorm.DB) ([]*domain.Reservation, error) {
	var reservationModels []models.SlotReservationModel
	if err := query.Order("start_at ASC").Find(&reservationModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	reservations := make([]*domain.Reservation, len(reservationModels))
	for i := range reservationModels {
		reservations[i] = mappers.ToDomainReservation(&reservationModels[i])
	}
	return reservations, nil
}
