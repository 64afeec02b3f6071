// Package outboxrepo persists side-effect messages for the dispatcher.
package outboxrepo

import (
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/outbox"

	"github.com/google/uuid"
)

// MessageDTO is the row layout of the outbox_messages table.
type MessageDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Kind          string     `gorm:"size:64;not null"`
	OrderID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	DistributorID *uuid.UUID `gorm:"type:uuid"`
	OrderStatus   string     `gorm:"size:32"`

	State         string    `gorm:"size:16;not null;index:idx_outbox_due,priority:1"`
	Attempts      int       `gorm:"not null;default:0"`
	LastError     string    `gorm:"type:text"`
	NextAttemptAt time.Time `gorm:"not null;index:idx_outbox_due,priority:2"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime:false"`
	SentAt        *time.Time
}

func (MessageDTO) TableName() string {
	return "outbox_messages"
}

func fromDomain(m *outbox.Message) MessageDTO {
	dto := MessageDTO{
		ID:            m.ID().Bytes(),
		Kind:          string(m.Kind()),
		OrderID:       m.OrderID().Bytes(),
		OrderStatus:   m.OrderStatus(),
		State:         string(m.State()),
		Attempts:      m.Attempts(),
		LastError:     m.LastError(),
		NextAttemptAt: m.NextAttemptAt(),
		CreatedAt:     m.CreatedAt(),
		SentAt:        m.SentAt(),
	}
	if id := m.DistributorID(); id != nil {
		raw := id.Bytes()
		dto.DistributorID = &raw
	}
	return dto
}

func toDomain(dto MessageDTO) (*outbox.Message, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
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

	return outbox.RestoreMessage(outbox.Snapshot{
		ID:            id,
		Kind:          outbox.Kind(dto.Kind),
		OrderID:       orderID,
		DistributorID: distributorID,
		OrderStatus:   dto.OrderStatus,
		State:         outbox.State(dto.State),
		Attempts:      dto.Attempts,
		LastError:     dto.LastError,
		NextAttemptAt: dto.NextAttemptAt,
		CreatedAt:     dto.CreatedAt,
		SentAt:        dto.SentAt,
	})
}
