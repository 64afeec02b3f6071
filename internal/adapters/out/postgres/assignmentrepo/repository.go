package assignmentrepo

import (
	"context"

	"waterdist/internal/adapters/out/postgres/dberr"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAssignmentRepository implements ports.AssignmentRepository.
type GormAssignmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormAssignmentRepository(db *gorm.DB, tracker aggregateTracker) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db, tracker: tracker}
}

// Add inserts an offer. A concurrent pending offer for the same order trips
// idx_assignments_pending_order and surfaces as a commit conflict.
func (r *GormAssignmentRepository) Add(ctx context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return errs.NewCommitConflictErrorWithCause("assignment", aggregate.OrderID().String(), err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update resolves a pending offer. Only rows still pending are written.
func (r *GormAssignmentRepository) Update(ctx context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&AssignmentDTO{}).
		Where("id = ? AND status = ?", dto.ID, string(assignment.Pending)).
		Updates(map[string]any{
			"status":           dto.Status,
			"accepted_at":      dto.AcceptedAt,
			"rejected_at":      dto.RejectedAt,
			"rejection_reason": dto.RejectionReason,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewCommitConflictError("assignment", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormAssignmentRepository) GetPendingForUpdate(ctx context.Context, orderID kernel.UUID) (*assignment.Assignment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto AssignmentDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&dto, "order_id = ? AND status = ?", orderID.Bytes(), string(assignment.Pending)).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, errs.NewObjectNotFoundError("pending assignment", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormAssignmentRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []AssignmentDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("offered_at ASC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]*assignment.Assignment, 0, len(dtos))
	for _, dto := range dtos {
		a, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, a)
	}
	return out, nil
}
