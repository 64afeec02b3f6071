// Package services holds the pure domain services of distributor dispatch:
//   - AssignmentScorer: rates one candidate distributor against an order location
//   - DistributorSelector: picks the best valid candidate from a scored set
//
// Nothing here performs I/O. Distances are measured by the caller and passed in.
package services
