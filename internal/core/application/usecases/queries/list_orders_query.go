// Package queries contains read operations for the operator API.
// Handlers read straight from the database with SQL and return flat read
// models; they never load aggregates or take locks.
package queries

import (
	"errors"
	"time"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"
	"waterdist/internal/pkg/guard"
)

const (
	DefaultOrdersLimit = 50
	MaxOrdersLimit     = 500
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists the most recent orders visible to caller.
//
// Example:
//
//	query, err := NewListOrdersQuery(caller, 0) // default limit
//	orders, err := handler.Handle(ctx, query)
type ListOrdersQuery struct {
	caller access.Caller
	limit  int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery builds the query. A limit of zero selects DefaultOrdersLimit.
func NewListOrdersQuery(caller access.Caller, limit int) (ListOrdersQuery, error) {
	if limit == 0 {
		limit = DefaultOrdersLimit
	}
	if limit < 0 || limit > MaxOrdersLimit {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxOrdersLimit)
	}
	return ListOrdersQuery{caller: caller, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Caller() access.Caller { return q.caller }
func (q ListOrdersQuery) Limit() int            { return q.limit }

// ListOrdersQueryResponse is one order row with its latest offer state.
type ListOrdersQueryResponse struct {
	ID            kernel.UUID
	ExternalRef   string
	CustomerName  string
	Address       string
	Status        order.Status
	DistributorID *kernel.UUID
	Total         kernel.Money

	// AssignmentStatus is the status of the most recent offer, empty when the
	// order was never offered.
	AssignmentStatus string

	CreatedAt time.Time
	UpdatedAt time.Time
}
