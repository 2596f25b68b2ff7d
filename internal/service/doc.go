// Package service contains the application use cases. It orchestrates the
// deduplication gate, the job scheduler and the stores (defined in
// internal/store) to fulfil the submit, poll and complete operations exposed
// by the API.
//
// Service methods return sentinel errors for expected conditions
// (ErrJobNotFound, ErrTaskNotFound, ErrTaskTerminal) and domain validation
// errors for bad input. Anything unexpected is wrapped in a ServiceError. The
// API layer maps these to HTTP status codes.
package service
