// Package order provides the Order aggregate root and its lifecycle state machine.
//
// The package includes:
//   - Order: identity, customer details, delivery address, optional coordinates,
//     total and the reference to the distributor currently holding the order
//   - Status: the state machine new -> assigned -> accepted -> picked_up -> delivered,
//     with rejection back to new and cancellation from any non-terminal state
//   - Customer: recipient contact details
//
// Key business rules:
//   - An order reserves one unit of its distributor's capacity while it is
//     assigned, accepted or picked up, and never otherwise
//   - Leaving a reserving status through delivery or cancellation releases the
//     reservation exactly once; replaying the current status is a no-op
//   - Illegal moves fail with errs.ErrInvalidTransition and leave the order untouched
package order
