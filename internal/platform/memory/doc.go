// Package memory implements the store interfaces with process-local maps.
//
// It enforces the same uniqueness rules as the Postgres schema (content hash,
// job id, task id) and reports them with the same store errors, which makes it
// a faithful stand-in for service and scheduler tests and for running the API
// without a database. Transactions are serialised: InTx holds an exclusive
// lock for its whole duration and restores a snapshot if fn fails. Readers are
// not blocked by an open transaction and may observe its uncommitted writes.
package memory
