// Package domain contains the core business entities of the service:
// transcripts submitted for processing, the tasks extracted from them, and the
// untrusted candidate tasks an extractor proposes. It is independent of any
// storage, transport or model-provider concern.
package domain
