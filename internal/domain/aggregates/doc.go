// Package aggregates defines domain-facing aggregate contracts and the canonical
// error type every completion write path returns.
//
// Contracts avoid persistence details; they describe the write boundaries inside
// which completion invariants must hold atomically.
package aggregates
