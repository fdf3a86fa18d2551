package core

import "errors"

// Caller-visible failures. Everything else inside the retrieval, generation
// and grading pipeline is absorbed and converted to a degraded but valid
// result.
var (
	// ErrEmptyDocument means there is nothing to index.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrNoRetrievableContent means a generation request found no grounding
	// context; the caller must index the material first.
	ErrNoRetrievableContent = errors.New("no retrievable content for document")
)
