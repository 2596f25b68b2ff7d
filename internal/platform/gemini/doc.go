// Package gemini implements extraction.Extractor on Google's Gemini API
// through the google.golang.org/genai client.
//
// A GeminiExtractor renders the transcript into a prompt template, asks the
// model for a JSON answer and hands the text to extraction.ParseCandidates.
// It performs exactly one model call per extraction: there is no retry, and
// no deadline beyond the one carried by the caller's context.
package gemini
