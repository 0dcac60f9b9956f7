// Package aggregates holds the storage-side primitives for invariant-critical
// writes: the transaction runner, status compare-and-set guards, storage error
// classification and the write executor that retries transient failures.
package aggregates
