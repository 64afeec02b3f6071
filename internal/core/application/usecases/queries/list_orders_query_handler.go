package queries

import (
	"context"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ListOrdersQueryHandler reads orders newest first. Callers the policy does
// not let see everything only get orders assigned to their distributor.
type ListOrdersQueryHandler struct {
	db     *gorm.DB
	policy access.Policy
}

func NewListOrdersQueryHandler(db *gorm.DB, policy access.Policy) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{db: db, policy: policy}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]ListOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]ListOrdersQueryResponse, 0)

	caller := query.Caller()
	where, args := "", []any{}
	if !h.policy.SeesAll(caller) {
		if caller.DistributorID == nil {
			return orders, nil
		}
		where = "WHERE o.distributor_id = ?"
		args = append(args, caller.DistributorID.Bytes())
	}
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.external_ref,
			o.customer_name,
			o.address,
			o.status,
			o.distributor_id,
			o.total,
			(
				SELECT a.status
				FROM assignments a
				WHERE a.order_id = o.id
				ORDER BY a.offered_at DESC
				LIMIT 1
			) AS assignment_status,
			o.created_at,
			o.updated_at
		FROM orders o
		`+where+`
		ORDER BY o.created_at DESC, o.id
		LIMIT ?
	`, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row ListOrdersQueryResponse
		var id uuid.UUID
		var distributorID uuid.NullUUID
		var status string
		var total decimal.Decimal
		var assignmentStatus *string

		err = rows.Scan(
			&id,
			&row.ExternalRef,
			&row.CustomerName,
			&row.Address,
			&status,
			&distributorID,
			&total,
			&assignmentStatus,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if row.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if row.Status, err = order.ParseStatus(status); err != nil {
			return nil, err
		}
		if distributorID.Valid {
			did, idErr := kernel.UUIDFromBytes(distributorID.UUID[:])
			if idErr != nil {
				return nil, idErr
			}
			row.DistributorID = &did
		}
		if row.Total, err = kernel.NewMoney(total); err != nil {
			return nil, err
		}
		if assignmentStatus != nil {
			row.AssignmentStatus = *assignmentStatus
		}

		orders = append(orders, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
