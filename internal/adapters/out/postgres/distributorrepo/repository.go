package distributorrepo

import (
	"context"

	"waterdist/internal/adapters/out/postgres/dberr"
	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDistributorRepository implements ports.DistributorRepository.
type GormDistributorRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormDistributorRepository(db *gorm.DB, tracker aggregateTracker) *GormDistributorRepository {
	return &GormDistributorRepository{db: db, tracker: tracker}
}

func (r *GormDistributorRepository) Add(ctx context.Context, aggregate *distributor.Distributor) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes capacity and profile fields. The row must still carry the
// loaded version and the new capacity must fit under max_capacity; otherwise
// nothing is written and a commit conflict is returned.
func (r *GormDistributorRepository) Update(ctx context.Context, aggregate *distributor.Distributor) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&DistributorDTO{}).
		Where("id = ? AND version = ? AND ? <= max_capacity", dto.ID, dto.Version, dto.CurrentCapacity).
		Updates(map[string]any{
			"name":             dto.Name,
			"email":            dto.Email,
			"phone":            dto.Phone,
			"location_lat":     dto.LocationLat,
			"location_lng":     dto.LocationLng,
			"current_capacity": dto.CurrentCapacity,
			"max_capacity":     dto.MaxCapacity,
			"active":           dto.Active,
			"version":          dto.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewCommitConflictError("distributor", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDistributorRepository) Get(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormDistributorRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormDistributorRepository) get(db *gorm.DB, id kernel.UUID) (*distributor.Distributor, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DistributorDTO
	if err := db.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, errs.NewObjectNotFoundError("distributor", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
