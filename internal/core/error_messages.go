// # Error Codes Reference
//
// This file defines user-facing error messages with codes for support
// reference. Codes are grouped by category:
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Table not found: The requested table is not registered
//	         Action: Pick a table from the list
//	         Patterns: "table not found"
//
//	TBL002 - Duplicate table: A table with this key is already registered
//	         Action: Rename one of the fixture or database tables
//	         Patterns: "table already registered"
//
//	TBL003 - Unknown column: The column does not exist in this table
//	         Action: Reload the table and try again
//	         Patterns: "unknown column"
//
//	TBL004 - Resize disabled: Column resizing is turned off
//	         Action: Enable resizing for this table
//	         Patterns: "column resizing is disabled"
//
//	TBL005 - Drag active: Another column is being resized
//	         Action: Finish the current resize first
//	         Patterns: "resize drag is already active"
//
//	TBL006 - Not allowed: The table does not permit this operation
//	         Action: Check the table options
//	         Patterns: "is disabled for this table"
//
//	TBL007 - Row not found: The row no longer exists
//	         Action: Reload the table
//	         Patterns: "row not found"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found: The view session does not exist
//	         Action: Open the table again
//	         Patterns: "session not found"
//
//	SES002 - Session expired: The view session timed out
//	         Action: Open the table again
//	         Patterns: "session expired"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Invalid body: The request body could not be read
//	         Action: Send a valid JSON or form body
//	         Patterns: "invalid request body"
//
//	REQ002 - Missing parameter: A required parameter is missing
//	         Action: Check the request parameters
//	         Patterns: "missing parameter"
//
//	REQ003 - Invalid parameter: A parameter has an invalid value
//	         Action: Check the request parameters
//	         Patterns: "invalid parameter"
//
//	REQ004 - Invalid value: The value does not fit the column type
//	         Action: Enter a value matching the column
//	         Patterns: "invalid value"
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Connection refused: Unable to reach the database
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused"
//
//	SRC002 - Missing relation: The database table does not exist
//	         Action: Check DATABASE_TABLES
//	         Patterns: "does not exist"
//
//	SRC003 - Fixture error: A fixture file could not be parsed
//	         Action: Fix the YAML file and restart
//	         Patterns: "fixture"
//
//	SRC004 - Timeout: Loading the data timed out
//	         Action: Please try again
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	RATE002 - Busy: Too many tables are loading at once
//	          Action: Please try again in a few seconds
//	          Patterns: "too many concurrent table loads"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Table Errors (TBL001-TBL007)
	// =========================================================================
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "Table not found",
			Action:  "Pick a table from the list",
			Code:    "TBL001",
		},
	},
	{
		pattern: "table already registered",
		msg: UserMessage{
			Message: "A table with this key is already registered",
			Action:  "Rename one of the fixture or database tables",
			Code:    "TBL002",
		},
	},
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "Unknown column",
			Action:  "Reload the table and try again",
			Code:    "TBL003",
		},
	},
	{
		pattern: "column resizing is disabled",
		msg: UserMessage{
			Message: "Column resizing is turned off",
			Action:  "Enable resizing for this table",
			Code:    "TBL004",
		},
	},
	{
		pattern: "resize drag is already active",
		msg: UserMessage{
			Message: "Another column is being resized",
			Action:  "Finish the current resize first",
			Code:    "TBL005",
		},
	},
	{
		pattern: "is disabled for this table",
		msg: UserMessage{
			Message: "This operation is not allowed on this table",
			Action:  "Check the table options",
			Code:    "TBL006",
		},
	},
	{
		pattern: "row not found",
		msg: UserMessage{
			Message: "Row not found",
			Action:  "Reload the table",
			Code:    "TBL007",
		},
	},

	// =========================================================================
	// Session Errors (SES001-SES002)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "View session not found",
			Action:  "Open the table again",
			Code:    "SES001",
		},
	},
	{
		pattern: "session expired",
		msg: UserMessage{
			Message: "View session expired",
			Action:  "Open the table again",
			Code:    "SES002",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ004)
	// =========================================================================
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a valid JSON or form body",
			Code:    "REQ001",
		},
	},
	{
		pattern: "missing parameter",
		msg: UserMessage{
			Message: "A required parameter is missing",
			Action:  "Check the request parameters",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "A parameter has an invalid value",
			Action:  "Check the request parameters",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid value",
		msg: UserMessage{
			Message: "The value does not fit the column type",
			Action:  "Enter a value matching the column",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Source Errors (SRC001-SRC004)
	// These errors occur while loading rows from fixtures or the database.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
			Code:    "SRC001",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The database table does not exist",
			Action:  "Check DATABASE_TABLES",
			Code:    "SRC002",
		},
	},
	{
		pattern: "fixture",
		msg: UserMessage{
			Message: "A fixture file could not be parsed",
			Action:  "Fix the YAML file and restart",
			Code:    "SRC003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Loading the data timed out",
			Action:  "Please try again",
			Code:    "SRC004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Loading the data timed out",
			Action:  "Please try again",
			Code:    "SRC004",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001-RATE002)
	// =========================================================================
	{
		pattern: "too many concurrent table loads",
		msg: UserMessage{
			Message: "Too many tables are loading at once",
			Action:  "Please try again in a few seconds",
			Code:    "RATE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("table not found: employees")
//	msg := MapError(err)
//	// msg.Code == "TBL001"
//	// msg.Message == "Table not found"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "Table not found (Code: TBL001). Pick a table from the list"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// WrapWithUserMessage wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(loadErr)
//	log.Error(ue.Technical)          // Log original error
//	fmt.Println(ue.Error())           // Show "Unable to reach the database"
//	fmt.Println(ue.User.Code)         // Show "SRC001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
