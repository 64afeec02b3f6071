// Package assignmentrepo persists distributor offers.
package assignmentrepo

import (
	"time"

	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// AssignmentDTO is the row layout of the assignments table. The partial
// unique index allows one pending offer per order.
type AssignmentDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index:idx_assignments_order;uniqueIndex:idx_assignments_pending_order,where:status = 'pending'"`
	DistributorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Score         float64   `gorm:"not null"`
	Status        string    `gorm:"size:16;not null;index"`

	OfferedAt       time.Time `gorm:"not null"`
	AcceptedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string `gorm:"size:512"`
}

func (AssignmentDTO) TableName() string {
	return "assignments"
}

func fromDomain(a *assignment.Assignment) AssignmentDTO {
	return AssignmentDTO{
		ID:              a.ID().Bytes(),
		OrderID:         a.OrderID().Bytes(),
		DistributorID:   a.DistributorID().Bytes(),
		Score:           a.Score(),
		Status:          string(a.Status()),
		OfferedAt:       a.OfferedAt(),
		AcceptedAt:      a.AcceptedAt(),
		RejectedAt:      a.RejectedAt(),
		RejectionReason: a.RejectionReason(),
	}
}

func toDomain(dto AssignmentDTO) (*assignment.Assignment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	distributorID, err := kernel.UUIDFromBytes(dto.DistributorID[:])
	if err != nil {
		return nil, err
	}

	return assignment.RestoreAssignment(assignment.Snapshot{
		ID:              id,
		OrderID:         orderID,
		DistributorID:   distributorID,
		Score:           dto.Score,
		Status:          assignment.Status(dto.Status),
		OfferedAt:       dto.OfferedAt,
		AcceptedAt:      dto.AcceptedAt,
		RejectedAt:      dto.RejectedAt,
		RejectionReason: dto.RejectionReason,
	})
}
