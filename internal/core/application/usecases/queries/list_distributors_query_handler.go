package queries

import (
	"context"

	"waterdist/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListDistributorsQueryHandler reads distributors in directory order.
type ListDistributorsQueryHandler struct {
	db *gorm.DB
}

func NewListDistributorsQueryHandler(db *gorm.DB) ListDistributorsQueryHandler {
	return ListDistributorsQueryHandler{db: db}
}

func (h ListDistributorsQueryHandler) Handle(
	ctx context.Context,
	query ListDistributorsQuery,
) ([]ListDistributorsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	distributors := make([]ListDistributorsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			current_capacity,
			max_capacity,
			active
		FROM distributors
		ORDER BY created_at, id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var d ListDistributorsQueryResponse
		var id uuid.UUID

		err = rows.Scan(
			&id,
			&d.Name,
			&d.CurrentCapacity,
			&d.MaxCapacity,
			&d.Active,
		)
		if err != nil {
			return nil, err
		}

		distributorID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		d.ID = distributorID
		distributors = append(distributors, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return distributors, nil
}
