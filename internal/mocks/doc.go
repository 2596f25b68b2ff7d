// Package mocks provides centralized mock implementations for testing.
//
// Mocks expose a Fn field per interface method so a test can script the
// behaviour it needs, and record every call for later assertions:
//
//	extractor := &mocks.MockExtractor{
//	    ExtractTasksFn: func(ctx context.Context, transcript string) ([]domain.CandidateTask, error) {
//	        return nil, extraction.ErrContentBlocked
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
package mocks
