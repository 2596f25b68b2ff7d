// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Implementations live under internal/platform: postgres for production and
// memory for local runs and tests. Both report failures with the sentinel
// errors declared here so callers can branch with errors.Is.
package store
