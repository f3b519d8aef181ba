package core

import "errors"

// Errors surfaced by the pipeline. Callers match them with errors.Is; the
// returned errors usually wrap one of these with extra context.
var (
	// ErrUnsupportedFileType is returned when the file name lacks a .txt extension.
	ErrUnsupportedFileType = errors.New("unsupported file type: only .txt files are accepted")

	// ErrEmptyOrInvalidInput is returned when no numeric tokens survive parsing.
	ErrEmptyOrInvalidInput = errors.New("file contains no numeric data")

	// ErrInvalidToken is returned in strict mode for the first unparseable token.
	ErrInvalidToken = errors.New("invalid number")

	// ErrFileTooLarge is returned when the input exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNothingToExport is returned when there is no computed result to save.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrInvalidPrecision is returned for a negative or oversized decimal precision.
	ErrInvalidPrecision = errors.New("invalid precision")

	// ErrInvalidSizeLabel is returned when a requested sample count is not a
	// non-negative integer.
	ErrInvalidSizeLabel = errors.New("invalid sample count")

	// ErrStaleIngest is returned when a newer ingest was applied before this one finished.
	ErrStaleIngest = errors.New("stale ingest superseded by a newer file")

	// ErrUnknownMode is returned for an ingest mode other than flat or grid.
	ErrUnknownMode = errors.New("unknown ingest mode")

	// ErrUnknownTransform is returned for an unregistered transform name.
	ErrUnknownTransform = errors.New("unknown transform")
)
