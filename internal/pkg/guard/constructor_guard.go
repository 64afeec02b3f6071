// Package guard holds the constructor guard embedded by value objects,
// aggregates and commands to reject zero-value instances.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a struct as built by its constructor. Its zero value
// reports "not constructed", so a struct literal that skips the constructor
// fails Validate.
//
// Example:
//
//	type Route struct {
//	    meters int
//	    guard  guard.ConstructorGuard
//	}
//
//	func NewRoute(meters int) Route {
//	    return Route{meters: meters, guard: guard.NewConstructorGuard()}
//	}
//
//	func (r Route) Validate() error {
//	    return r.guard.Validate(ErrRouteIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that validates successfully.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
