// Package invoicerepo records generated invoice documents.
package invoicerepo

import (
	"context"
	"time"

	"waterdist/internal/adapters/out/postgres/dberr"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceDTO is the row layout of the invoices table.
type InvoiceDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Path      string    `gorm:"size:1024;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
}

func (InvoiceDTO) TableName() string {
	return "invoices"
}

type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) Add(ctx context.Context, handle ports.DocumentHandle, createdAt time.Time) error {
	if err := handle.ID.Validate(); err != nil {
		return err
	}
	if handle.Path == "" {
		return errs.NewValueIsRequiredError("invoice path")
	}

	dto := InvoiceDTO{
		ID:        handle.ID.Bytes(),
		OrderID:   handle.OrderID.Bytes(),
		Path:      handle.Path,
		CreatedAt: createdAt,
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// GetLatest returns the most recent invoice generated for the order.
func (r *GormInvoiceRepository) GetLatest(ctx context.Context, orderID kernel.UUID) (ports.DocumentHandle, error) {
	var dto InvoiceDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at DESC").
		First(&dto).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return ports.DocumentHandle{}, errs.NewObjectNotFoundError("invoice", orderID.String())
		}
		return ports.DocumentHandle{}, err
	}

	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.DocumentHandle{}, err
	}
	return ports.DocumentHandle{ID: id, OrderID: orderID, Path: dto.Path}, nil
}
