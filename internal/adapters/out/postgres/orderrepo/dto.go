// Package orderrepo persists order aggregates with gorm.
package orderrepo

import (
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the row layout of the orders table.
type OrderDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExternalRef   string    `gorm:"size:128;not null;uniqueIndex:idx_orders_external_ref"`
	CustomerName  string    `gorm:"size:255"`
	CustomerPhone string    `gorm:"size:64"`
	CustomerEmail string    `gorm:"size:255"`
	Address       string    `gorm:"not null"`

	LocationLat *float64
	LocationLng *float64

	Total              decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status             string          `gorm:"size:32;not null;index"`
	DistributorID      *uuid.UUID      `gorm:"type:uuid;index"`
	ProofOfDeliveryURL string          `gorm:"size:1024"`

	CreatedAt   time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
	DeliveredAt *time.Time

	Version int `gorm:"not null;default:0"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:                 o.ID().Bytes(),
		ExternalRef:        o.ExternalRef(),
		CustomerName:       o.Customer().Name(),
		CustomerPhone:      o.Customer().Phone(),
		CustomerEmail:      o.Customer().Email(),
		Address:            o.Address(),
		Total:              o.Total().Decimal(),
		Status:             o.Status().String(),
		ProofOfDeliveryURL: o.ProofOfDeliveryURL(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
		DeliveredAt:        o.DeliveredAt(),
		Version:            o.Version(),
	}

	if loc := o.Location(); loc != nil {
		lat, lng := loc.Lat(), loc.Lng()
		dto.LocationLat = &lat
		dto.LocationLng = &lng
	}

	if id := o.Distributor(); id != nil {
		raw := id.Bytes()
		dto.DistributorID = &raw
	}

	return dto
}

// updateColumns lists every mutable column so that NULLs are written too.
func updateColumns(dto OrderDTO) map[string]any {
	return map[string]any{
		"customer_name":         dto.CustomerName,
		"customer_phone":        dto.CustomerPhone,
		"customer_email":        dto.CustomerEmail,
		"address":               dto.Address,
		"location_lat":          dto.LocationLat,
		"location_lng":          dto.LocationLng,
		"total":                 dto.Total,
		"status":                dto.Status,
		"distributor_id":        dto.DistributorID,
		"proof_of_delivery_url": dto.ProofOfDeliveryURL,
		"updated_at":            dto.UpdatedAt,
		"delivered_at":          dto.DeliveredAt,
		"version":               dto.Version + 1,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var distributorID *kernel.UUID
	if dto.DistributorID != nil {
		dID, dErr := kernel.UUIDFromBytes((*dto.DistributorID)[:])
		if dErr != nil {
			return nil, dErr
		}
		distributorID = &dID
	}

	var location *kernel.Location
	if dto.LocationLat != nil && dto.LocationLng != nil {
		loc, locErr := kernel.NewLocation(*dto.LocationLat, *dto.LocationLng)
		if locErr != nil {
			return nil, locErr
		}
		location = &loc
	}

	total, err := kernel.NewMoney(dto.Total)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:                 id,
		ExternalRef:        dto.ExternalRef,
		Customer:           order.NewCustomer(dto.CustomerName, dto.CustomerPhone, dto.CustomerEmail),
		Address:            dto.Address,
		Location:           location,
		Total:              total,
		Status:             status,
		DistributorID:      distributorID,
		ProofOfDeliveryURL: dto.ProofOfDeliveryURL,
		CreatedAt:          dto.CreatedAt,
		UpdatedAt:          dto.UpdatedAt,
		DeliveredAt:        dto.DeliveredAt,
		Version:            dto.Version,
	})
}
