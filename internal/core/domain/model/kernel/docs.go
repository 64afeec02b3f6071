// Package kernel provides the value objects shared by every aggregate of the
// dispatch domain:
//   - UUID: identifiers for orders, distributors, assignments and outbox messages
//   - Location: validated WGS84 coordinates
//   - Money: non-negative two-decimal amounts backed by shopspring/decimal
//   - Route: a measured distance and travel time between two locations
//
// All of them are immutable and reject their zero value through Validate.
package kernel
