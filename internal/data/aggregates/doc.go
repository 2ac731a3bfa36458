// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations here compose the table-level repos from internal/data/repos and own
// the transaction boundary for writes that must land together, such as a completion batch.
package aggregates
