package core

import "fmt"

// UploadValidationError rejects a file before any processing starts:
// wrong type or over the configured size ceiling.
type UploadValidationError struct {
	Reason string
}

func (e *UploadValidationError) Error() string {
	return "upload rejected: " + e.Reason
}

// ExtractionError reports an OCR or parsing failure. It is retryable through
// a fallback extraction path and fatal only once every path is exhausted.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InsufficientTextError means extraction produced too little text to be
// useful. Fatal: the user must supply a better source document.
type InsufficientTextError struct {
	Chars int
	Min   int
}

func (e *InsufficientTextError) Error() string {
	return fmt.Sprintf("extracted only %d characters (minimum %d); document is not readable enough to ingest", e.Chars, e.Min)
}

// MetadataExtractionFailure is a non-fatal AI-tier failure; callers fall back
// to the pattern tier or the filename.
type MetadataExtractionFailure struct {
	Err error
}

func (e *MetadataExtractionFailure) Error() string {
	return fmt.Sprintf("ai metadata extraction failed: %v", e.Err)
}

func (e *MetadataExtractionFailure) Unwrap() error { return e.Err }

// EmbeddingServiceError is fatal for the current ingestion job.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// PersistenceError reports a failed database write. Chunk-batch failures are
// logged and the pipeline continues; the result carries the persisted count.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AuthError rejects an unauthenticated caller before any work.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Reason }

// NotFoundError reports a missing referenced asset or document.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
