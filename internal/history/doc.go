// Package history persists the outcome of every conversion in a SQLite
// ledger.
//
// The ledger backs the "golfr history" command and the skip-unchanged batch
// mode: a recording is skipped when its last successful conversion used the
// same input size, modification time and settings and the output still
// exists. The store is safe for concurrent use by batch workers.
package history
