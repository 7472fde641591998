package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the failure classes a search client can raise
type ErrorType string

const (
	// ErrorTypeBootstrap means the session could not be established at all.
	ErrorTypeBootstrap ErrorType = "bootstrap"
	// ErrorTypeMissingToken means the structured path was attempted without its token.
	ErrorTypeMissingToken ErrorType = "missing_capability_token"
	ErrorTypeQuery        ErrorType = "query"
	ErrorTypeRecordParse  ErrorType = "record_parse"
)

// maxBodyPreview caps how much of a response body is carried in an error
const maxBodyPreview = 200

// Error is a typed search failure carrying enough context to log meaningfully
type Error struct {
	Type    ErrorType
	Site    string
	Stage   string
	Message string
	Code    int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s error at %s (code %d): %s", e.Site, e.Type, e.Stage, e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Bootstrap creates a session acquisition failure
func Bootstrap(site, stage string, code int, message string, cause error) *Error {
	return &Error{Type: ErrorTypeBootstrap, Site: site, Stage: stage, Code: code, Message: message, Err: cause}
}

// MissingToken creates a failure for a structured call made without its token
func MissingToken(site, stage, token string) *Error {
	return &Error{
		Type:    ErrorTypeMissingToken,
		Site:    site,
		Stage:   stage,
		Message: fmt.Sprintf("%s not available", token),
	}
}

// Query creates a failure for a non-success status or an unparsable body
func Query(site, stage string, code int, message string, cause error) *Error {
	return &Error{Type: ErrorTypeQuery, Site: site, Stage: stage, Code: code, Message: message, Err: cause}
}

// RecordParse creates a failure for a single record that could not be normalized
func RecordParse(site, stage, message string, cause error) *Error {
	return &Error{Type: ErrorTypeRecordParse, Site: site, Stage: stage, Message: message, Err: cause}
}

// WithBody attaches a truncated copy of the response body
func (e *Error) WithBody(body []byte) *Error {
	e.Body = Preview(body)
	return e
}

// Preview truncates a body for logs and errors
func Preview(body []byte) string {
	if len(body) <= maxBodyPreview {
		return string(body)
	}
	return string(body[:maxBodyPreview]) + "..."
}

// IsType reports whether any error in err's chain is an *Error of type t
func IsType(err error, t ErrorType) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Type == t
}

func IsBootstrap(err error) bool {
	return IsType(err, ErrorTypeBootstrap)
}

func IsMissingToken(err error) bool {
	return IsType(err, ErrorTypeMissingToken)
}

// IsQuery reports query failures. A missing capability token only surfaces when a
// query is attempted, so it counts as one too.
func IsQuery(err error) bool {
	return IsType(err, ErrorTypeQuery) || IsType(err, ErrorTypeMissingToken)
}

func IsRecordParse(err error) bool {
	return IsType(err, ErrorTypeRecordParse)
}

// StatusCode extracts the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// StageOf extracts the stage carried by err, or ""
func StageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Stage
	}
	return ""
}
