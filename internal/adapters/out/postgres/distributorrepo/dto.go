// Package distributorrepo persists distributors and serves the candidate directory.
package distributorrepo

import (
	"time"

	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DistributorDTO is the row layout of the distributors table. The check
// constraint keeps the capacity invariant even for writes outside the repository.
type DistributorDTO struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"size:255;not null"`
	Email string    `gorm:"size:255"`
	Phone string    `gorm:"size:64"`

	LocationLat float64 `gorm:"not null"`
	LocationLng float64 `gorm:"not null"`

	CurrentCapacity int  `gorm:"not null;default:0;check:chk_distributors_capacity,current_capacity >= 0 AND current_capacity <= max_capacity"`
	MaxCapacity     int  `gorm:"not null"`
	Active          bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	Version   int       `gorm:"not null;default:0"`
}

func (DistributorDTO) TableName() string {
	return "distributors"
}

func fromDomain(d *distributor.Distributor) DistributorDTO {
	return DistributorDTO{
		ID:              d.ID().Bytes(),
		Name:            d.Name(),
		Email:           d.Email(),
		Phone:           d.Phone(),
		LocationLat:     d.Location().Lat(),
		LocationLng:     d.Location().Lng(),
		CurrentCapacity: d.CurrentCapacity(),
		MaxCapacity:     d.MaxCapacity(),
		Active:          d.IsActive(),
		CreatedAt:       d.CreatedAt(),
		Version:         d.Version(),
	}
}

func toDomain(dto DistributorDTO) (*distributor.Distributor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	loc, err := kernel.NewLocation(dto.LocationLat, dto.LocationLng)
	if err != nil {
		return nil, err
	}

	return distributor.RestoreDistributor(distributor.Snapshot{
		ID:              id,
		Name:            dto.Name,
		Email:           dto.Email,
		Phone:           dto.Phone,
		Location:        loc,
		CurrentCapacity: dto.CurrentCapacity,
		MaxCapacity:     dto.MaxCapacity,
		Active:          dto.Active,
		CreatedAt:       dto.CreatedAt,
		Version:         dto.Version,
	})
}

func toDomainList(dtos []DistributorDTO) ([]*distributor.Distributor, error) {
	out := make([]*distributor.Distributor, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
