package outboxrepo

import (
	"context"
	"time"

	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements ports.OutboxRepository.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, message *outbox.Message) error {
	if err := message.Validate(); err != nil {
		return err
	}

	dto := fromDomain(message)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ClaimDue locks due pending messages. Rows held by another dispatcher's
// transaction are skipped instead of waited on.
func (r *GormOutboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "+inf")
	}

	var dtos []MessageDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("state = ? AND next_attempt_at <= ?", string(outbox.StatePending), now).
		Order("next_attempt_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]*outbox.Message, 0, len(dtos))
	for _, dto := range dtos {
		m, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *GormOutboxRepository) Update(ctx context.Context, message *outbox.Message) error {
	if err := message.Validate(); err != nil {
		return err
	}

	dto := fromDomain(message)
	result := r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id = ?", dto.ID).
		Updates(map[string]any{
			"state":           dto.State,
			"attempts":        dto.Attempts,
			"last_error":      dto.LastError,
			"next_attempt_at": dto.NextAttemptAt,
			"sent_at":         dto.SentAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("outbox message", message.ID().String())
	}
	return nil
}
