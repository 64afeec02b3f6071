// Package access decides whether a caller may act on an order.
//
// Lifecycle handlers receive one Policy at construction time and consult it
// before touching an order. A denied caller is told the order does not exist.
package access

import (
	"fmt"
	"strings"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"
)

// Policy names accepted by NewPolicy.
const (
	PolicyAllAccess = "all_access"
	PolicyOwnerOnly = "owner_only"
	PolicyRoleBased = "role_based"
)

// Caller is the identity resolved by the inbound adapter.
type Caller struct {
	Subject       string
	DistributorID *kernel.UUID
	Operator      bool
}

// System is the identity used by background jobs and the order webhook.
func System() Caller {
	return Caller{Subject: "system", Operator: true}
}

// Policy is the "caller may act on order" predicate.
type Policy interface {
	CanActOn(caller Caller, o *order.Order) bool

	// SeesAll reports whether list queries skip the ownership filter for caller.
	SeesAll(caller Caller) bool
}

// NewPolicy returns the policy registered under name. Empty selects role_based.
func NewPolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyAllAccess:
		return AllAccess{}, nil
	case PolicyOwnerOnly:
		return OwnerOnly{}, nil
	case "", PolicyRoleBased:
		return RoleBased{}, nil
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause("access policy", fmt.Errorf("unknown policy %q", name))
	}
}

// Authorize returns a not-found error when caller may not act on o.
func Authorize(policy Policy, caller Caller, o *order.Order) error {
	if policy.CanActOn(caller, o) {
		return nil
	}
	return errs.NewObjectNotFoundErrorWithCause("order", o.ID().String(),
		fmt.Errorf("caller %q may not act on it", caller.Subject))
}

// AllAccess lets every caller act on every order.
type AllAccess struct{}

func (AllAccess) CanActOn(Caller, *order.Order) bool { return true }

func (AllAccess) SeesAll(Caller) bool { return true }

// OwnerOnly lets a distributor act only on orders currently assigned to it.
type OwnerOnly struct{}

func (OwnerOnly) CanActOn(caller Caller, o *order.Order) bool {
	return caller.DistributorID != nil && o.IsAssignedTo(*caller.DistributorID)
}

func (OwnerOnly) SeesAll(Caller) bool { return false }

// RoleBased gives operators all access and everyone else owner-only access.
type RoleBased struct{}

func (RoleBased) CanActOn(caller Caller, o *order.Order) bool {
	if caller.Operator {
		return true
	}
	return OwnerOnly{}.CanActOn(caller, o)
}

func (RoleBased) SeesAll(caller Caller) bool { return caller.Operator }
