package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code to support staff for faster diagnosis.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A form with this ID already exists
//	DB002 - Connection refused: Unable to connect to database
//	DB003 - Connection reset: Database connection was interrupted
//	DB004 - Timeout: Operation timed out
//	DB005 - Busy: Database is busy (deadlock, sqlite lock)
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid form: One or more fields failed validation (typed)
//	VAL002 - Invalid number: A currency box holds something that is not a number
//	VAL003 - Invalid date: A date box could not be parsed
//	VAL004 - Required field: A required box is missing
//	VAL005 - Invalid tax year: Tax year outside the accepted range
//	VAL006 - Invalid request: The request body could not be decoded
//
// # Form Errors (FORM001-FORM099)
//
//	FORM001 - Unknown form type (typed)
//	FORM002 - Form not found (typed)
//
// # Access Errors (AUTH001, RATE001, RATE002)
//
//	AUTH001 - Missing or invalid bearer token
//	RATE001 - Too many requests
//	RATE002 - Too many concurrent exports
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the technical error
//
// # Matching
//
// Typed errors are classified with errors.As/errors.Is first. Anything else
// is matched case-insensitively against errorPatterns with strings.Contains;
// the first matching pattern wins, so specific patterns precede general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a form does not exist for the requesting user.
var ErrNotFound = errors.New("form not found")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgInvalidForm = UserMessage{
		Message: "The form has invalid or missing fields",
		Action:  "Correct the highlighted fields and submit again",
		Code:    "VAL001",
	}
	msgUnknownFormType = UserMessage{
		Message: "This form type is not supported",
		Action:  "Choose one of 1099-NEC, MISC, INT, DIV, B, R, G or K",
		Code:    "FORM001",
	}
	msgNotFound = UserMessage{
		Message: "Form not found",
		Action:  "The form may have been deleted. Refresh the list",
		Code:    "FORM002",
	}
)

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// Database
	{pattern: "duplicate key", msg: UserMessage{
		Message: "A form with this ID already exists",
		Action:  "Submit the form again to assign a new ID",
		Code:    "DB001",
	}},
	{pattern: "unique constraint", msg: UserMessage{
		Message: "A form with this ID already exists",
		Action:  "Submit the form again to assign a new ID",
		Code:    "DB001",
	}},
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}},
	{pattern: "connection reset", msg: UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB003",
	}},
	{pattern: "context deadline exceeded", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB004",
	}},
	{pattern: "timeout", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "DB004",
	}},
	{pattern: "deadlock", msg: UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB005",
	}},
	{pattern: "database is locked", msg: UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB005",
	}},

	// Validation
	{pattern: "invalid number", msg: UserMessage{
		Message: "Invalid amount detected",
		Action:  "Enter amounts as plain numbers, for example 1234.56",
		Code:    "VAL002",
	}},
	{pattern: "invalid date", msg: UserMessage{
		Message: "Invalid date detected",
		Action:  "Use YYYY-MM-DD or MM/DD/YYYY",
		Code:    "VAL003",
	}},
	{pattern: "required field", msg: UserMessage{
		Message: "A required field is missing",
		Action:  "Fill in every required box",
		Code:    "VAL004",
	}},
	{pattern: "tax year", msg: UserMessage{
		Message: "Invalid tax year",
		Action:  fmt.Sprintf("Use a year between %d and %d", MinTaxYear, MaxTaxYear),
		Code:    "VAL005",
	}},
	{pattern: "invalid request", msg: UserMessage{
		Message: "The request could not be read",
		Action:  "Send a JSON body with formType, taxYear and data",
		Code:    "VAL006",
	}},

	// Access
	{pattern: "unauthorized", msg: UserMessage{
		Message: "You are not signed in",
		Action:  "Sign in again and retry",
		Code:    "AUTH001",
	}},
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
	{pattern: "too many concurrent", msg: UserMessage{
		Message: "The server is busy building other exports",
		Action:  "Wait a few seconds and download again",
		Code:    "RATE002",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := core.Validate("INT", data)
//	msg := MapError(err)
//	// msg.Code == "VAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verr *ValidationError
	var uerr *UnknownFormTypeError
	switch {
	case errors.As(err, &verr):
		return msgInvalidForm
	case errors.As(err, &uerr):
		return msgUnknownFormType
	case errors.Is(err, ErrNotFound):
		return msgNotFound
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
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
