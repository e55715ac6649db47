package retrieval

import "errors"

var (
	// ErrUnsupportedFormat indicates a document source with no loader.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates a loaded document had no text.
	ErrEmptyDocument = errors.New("document has no text")

	// ErrEmptyIndex indicates a search against an index with no chunks.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrDimensionMismatch indicates vectors of different lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSourceNotAllowed indicates a source rejected by a SourcePolicy.
	ErrSourceNotAllowed = errors.New("source not allowed")
)
