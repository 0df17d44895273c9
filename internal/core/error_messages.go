package core

// error_messages.go maps technical errors to user-facing messages with a
// code that support staff can look up.
//
// # Validation (VAL)
//
//	VAL001 - Batch rejected: one or more rows failed validation
//	VAL002 - No valid rows: the file has a header but no questions
//	VAL003 - Malformed request field (researchGroupId)
//	VAL004 - Malformed import identifier
//
// # File (FILE)
//
//	FILE001 - File too large
//	FILE002 - Unreadable file (corrupt workbook, legacy .xls, broken CSV)
//	FILE003 - Invalid extension for the endpoint
//	FILE004 - No file in the request
//	FILE005 - Empty file
//	FILE006 - No header or sheet found
//	FILE007 - Header present but no data rows
//
// # Question store (DB)
//
//	DB001 - Duplicate question
//	DB003 - Referenced record (research group, creator) does not exist
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//	DB008 - Import not found
//
// # Upload (UPL)
//
//	UPL002 - All import slots busy
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// Typed errors are matched first with errors.Is/As; anything else falls
// back to case-insensitive substring patterns, first match wins. ERR000 is
// the fallback: check the logs for the original error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

var (
	msgBatchRejected = UserMessage{
		Message: "Some rows failed validation; no questions were imported",
		Action:  "Fix the listed lines and upload the file again",
		Code:    "VAL001",
	}
	msgNoValidRows = UserMessage{
		Message: "The file contains no questions",
		Action:  "Add at least one question below the header row",
		Code:    "VAL002",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the questions into smaller files",
		Code:    "FILE001",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read",
		Action:  "Save it as .xlsx or UTF-8 .csv and try again",
		Code:    "FILE002",
	}
	msgInvalidExtension = UserMessage{
		Message: "This file type is not accepted here",
		Action:  "Upload .xlsx/.xls to the Excel endpoint or .csv to the CSV endpoint",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Download the template and fill in your questions",
		Code:    "FILE005",
	}
	msgNoStructure = UserMessage{
		Message: "No header row was found",
		Action:  "Make sure the first sheet starts with the template header row",
		Code:    "FILE006",
	}
	msgEmptyDataset = UserMessage{
		Message: "The file has a header but no data rows",
		Action:  "Add questions below the header row",
		Code:    "FILE007",
	}
	msgDuplicate = UserMessage{
		Message: "A question in this file already exists",
		Action:  "Remove questions that were imported before",
		Code:    "DB001",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Check the research group and user identifiers",
		Code:    "DB003",
	}
	msgImportNotFound = UserMessage{
		Message: "No import with this identifier was found",
		Action:  "Use the importId returned by the upload",
		Code:    "DB008",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive untyped, mostly driver errors.
var errorPatterns = []errorPattern{
	{"duplicate key", msgDuplicate},
	{"violates unique", msgDuplicate},
	{"violates foreign key", msgForeignKey},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the question store",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Attach the spreadsheet or CSV in the file field",
		Code:    "FILE004",
	}},
	{"invalid researchgroupid", UserMessage{
		Message: "The research group identifier is not valid",
		Action:  "Send researchGroupId as a UUID or leave it empty",
		Code:    "VAL003",
	}},
	{"invalid import id", UserMessage{
		Message: "The import identifier is not valid",
		Action:  "Use the importId returned by the upload",
		Code:    "VAL004",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err into a user-facing message. It returns the zero
// UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var batch *BatchRejectedError
	var upstream *UpstreamError
	switch {
	case errors.As(err, &batch):
		return msgBatchRejected
	case errors.Is(err, ErrNoValidRows):
		return msgNoValidRows
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, ErrInvalidExtension):
		return msgInvalidExtension
	case errors.Is(err, ErrEmptySource):
		return msgEmptyFile
	case errors.Is(err, ErrNoContainerStructure):
		return msgNoStructure
	case errors.Is(err, ErrEmptyDataset):
		return msgEmptyDataset
	case errors.Is(err, ErrUnreadableSource):
		return msgUnreadable
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports
	case errors.Is(err, ErrImportNotFound):
		return msgImportNotFound
	case errors.As(err, &upstream) && upstream.Kind == UpstreamDuplicate:
		return msgDuplicate
	case errors.As(err, &upstream) && upstream.Kind == UpstreamForeignKey:
		return msgForeignKey
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders MapError as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}
