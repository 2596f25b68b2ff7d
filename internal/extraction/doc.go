// Package extraction defines the boundary between the service and the
// external text-generation model that proposes tasks for a transcript.
//
// Extractor implementations return CandidateTask values exactly as the model
// produced them; nothing in a candidate is trusted until the taskgraph
// sanitizer has repaired it.
package extraction
