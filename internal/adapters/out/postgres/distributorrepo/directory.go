package distributorrepo

import (
	"context"

	"waterdist/internal/core/domain/model/distributor"

	"gorm.io/gorm"
)

// GormDistributorDirectory implements ports.DistributorDirectory. It reads
// outside any unit of work, so the snapshot may be stale by commit time; the
// commit re-checks capacity under a row lock.
type GormDistributorDirectory struct {
	db *gorm.DB
}

func NewGormDistributorDirectory(db *gorm.DB) *GormDistributorDirectory {
	return &GormDistributorDirectory{db: db}
}

// ListAvailable returns active distributors with free capacity in (created_at, id) order.
func (d *GormDistributorDirectory) ListAvailable(ctx context.Context) ([]*distributor.Distributor, error) {
	var dtos []DistributorDTO
	err := d.db.WithContext(ctx).
		Where("active = ? AND current_capacity < max_capacity", true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}
