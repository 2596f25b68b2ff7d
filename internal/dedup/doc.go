// Package dedup makes transcript submission idempotent. Content is normalised
// (trimmed and lower-cased) and hashed; the hash is the deduplication key, so
// two submissions that differ only in surrounding whitespace or letter case
// map to the same job.
package dedup
