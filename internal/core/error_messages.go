package core

// error_messages.go maps pipeline errors to user-facing messages with a code
// that can be quoted when reporting a problem.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the input exceeds the configured size limit
//	FILE004 - No file: no file was selected
//	FILE006 - Unsupported type: only .txt files are accepted
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL002 - Invalid number: strict mode found a token that is not a number
//	VAL007 - No numeric data: nothing in the file parsed as a number
//	VAL008 - Unknown mode: ingest mode is neither flat nor grid
//	VAL009 - Invalid sample count: the N used in export names is not a number
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Nothing to export: no result has been computed yet
//	EXP002 - Invalid precision: digits must be within 0-17
//
// # Ingest Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many ingests in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//	UPL006 - Superseded: a newer file was loaded first
//
// # Transform Errors (TRN001-TRN099)
//
//	TRN001 - Unknown transform
//
// # Rate Limiting
//
//	RATE001 - Too many requests
//
// # Default
//
//	ERR000 - An unexpected error occurred
//
// Sentinel errors are matched with errors.Is first. Errors that only carry
// text (from net/http, for example) fall back to case-insensitive substring
// patterns, first match wins.

import (
	"context"
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the samples into smaller files",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a .txt file with numeric samples",
		Code:    "FILE004",
	}
	msgUnsupported = UserMessage{
		Message: "Only .txt files are supported",
		Action:  "Save the samples as a plain text file with a .txt extension",
		Code:    "FILE006",
	}
	msgInvalidNumber = UserMessage{
		Message: "The file contains a value that is not a number",
		Action:  "Fix the reported token or upload without strict mode",
		Code:    "VAL002",
	}
	msgNoNumbers = UserMessage{
		Message: "The file contains no numeric data",
		Action:  "Separate numbers with spaces, commas or new lines",
		Code:    "VAL007",
	}
	msgUnknownMode = UserMessage{
		Message: "Unknown ingest mode",
		Action:  "Choose flat or grid",
		Code:    "VAL008",
	}
	msgInvalidSize = UserMessage{
		Message: "Invalid sample count",
		Action:  "Use a whole number for N",
		Code:    "VAL009",
	}
	msgNothingToExport = UserMessage{
		Message: "There is no data to save",
		Action:  "Load a file and wait for the result before exporting",
		Code:    "EXP001",
	}
	msgInvalidPrecision = UserMessage{
		Message: "Invalid number of decimal places",
		Action:  "Use between 0 and 17 digits",
		Code:    "EXP002",
	}
	msgBusy = UserMessage{
		Message: "Too many files are being processed",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgStale = UserMessage{
		Message: "A newer file was loaded while this one was processing",
		Action:  "No action needed; the newest file is shown",
		Code:    "UPL006",
	}
	msgUnknownTransform = UserMessage{
		Message: "Unknown transform",
		Action:  "Pick one of the listed transforms",
		Code:    "TRN001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, msgTooLarge},
	{ErrUnsupportedFileType, msgUnsupported},
	{ErrInvalidToken, msgInvalidNumber},
	{ErrEmptyOrInvalidInput, msgNoNumbers},
	{ErrUnknownMode, msgUnknownMode},
	{ErrInvalidSizeLabel, msgInvalidSize},
	{ErrNothingToExport, msgNothingToExport},
	{ErrInvalidPrecision, msgInvalidPrecision},
	{ErrTooManyIngests, msgBusy},
	{ErrStaleIngest, msgStale},
	{ErrUnknownTransform, msgUnknownTransform},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns maps technical error text (case-insensitive) to messages.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", msgTooLarge},
	{"file too large", msgTooLarge},
	{"no file provided", msgNoFile},
	{"no such file", msgNoFile},
	{"rate limit", msgRateLimited},
	{"context canceled", msgCancelled},
	{"deadline exceeded", msgTimeout},
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	return msgDefault
}

// MapErrorWithDetail returns the mapped message plus the technical detail,
// for development mode or debug views.
func MapErrorWithDetail(err error) (UserMessage, string) {
	if err == nil {
		return UserMessage{}, ""
	}
	return MapError(err), err.Error()
}
