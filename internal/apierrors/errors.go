// Package apierrors defines the error kinds the API reports to clients.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code identifies an error kind. Each code has a fixed HTTP status.
type Code string

const (
	CodeUserHasNoReplays        Code = "USER_HAS_NO_REPLAYS"
	CodeReplayNotFound          Code = "REPLAY_NOT_FOUND"
	CodePlayerNotFound          Code = "PLAYER_NOT_FOUND"
	CodeTagNotFound             Code = "TAG_NOT_FOUND"
	CodeErrorOpeningGame        Code = "ERROR_OPENING_GAME"
	CodeMissingQueryParams      Code = "MISSING_QUERY_PARAMS"
	CodeMismatchedQueryParams   Code = "MISMATCHED_QUERY_PARAMS"
	CodeInvalidQueryParamFormat Code = "INVALID_QUERY_PARAM_FORMAT"
	CodeUnsupportedPlaylist     Code = "UNSUPPORTED_PLAYLIST"
	CodeAuthorization           Code = "AUTHORIZATION"
	CodeInternal                Code = "INTERNAL"
)

// HTTPStatus maps a code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUserHasNoReplays, CodeReplayNotFound, CodePlayerNotFound, CodeTagNotFound:
		return http.StatusNotFound
	case CodeMissingQueryParams, CodeMismatchedQueryParams, CodeInvalidQueryParamFormat:
		return http.StatusBadRequest
	case CodeUnsupportedPlaylist:
		return http.StatusNotImplemented
	case CodeAuthorization:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure that is safe to show to API clients.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// StatusCode returns the HTTP status for the error.
func (e *Error) StatusCode() int {
	return e.Code.HTTPStatus()
}

// Body returns the JSON response payload.
func (e *Error) Body() map[string]string {
	return map[string]string{
		"message": e.Message,
	}
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func UserHasNoReplays() *Error {
	return New(CodeUserHasNoReplays, "This user has no replays.")
}

func ReplayNotFound() *Error {
	return New(CodeReplayNotFound, "Replay not found.")
}

func PlayerNotFound() *Error {
	return New(CodePlayerNotFound, "Player not found")
}

func TagNotFound() *Error {
	return New(CodeTagNotFound, "Tag not found")
}

func UnsupportedPlaylist() *Error {
	return New(CodeUnsupportedPlaylist, "Playlist not supported")
}

// Authorization is returned when the caller may not perform the request.
func Authorization() *Error {
	return New(CodeAuthorization, "User not allowed for this request")
}

// ErrorOpeningGame reports that cached replay artifacts could not be read.
func ErrorOpeningGame(cause error) *Error {
	detail := "<nil>"
	if cause != nil {
		detail = cause.Error()
	}
	return &Error{
		Code:    CodeErrorOpeningGame,
		Message: fmt.Sprintf("Error opening game: %s", detail),
		Cause:   cause,
	}
}

// MissingQueryParams reports required query parameters that were absent.
func MissingQueryParams(names ...string) *Error {
	suffix := "s"
	if len(names) == 1 {
		suffix = ""
	}
	message := fmt.Sprintf("Query parameter%s %s are required.", suffix, strings.Join(names, " and "))
	return New(CodeMissingQueryParams, message)
}

// MismatchedQueryParams reports two list parameters that must pair up element by element.
func MismatchedQueryParams(query1, query2 string, size1, size2 int) *Error {
	message := fmt.Sprintf("Query parameter %s does not have the same number of elements as %s: ", query1, query2)
	message += fmt.Sprintf("%d != %d", size1, size2)
	return New(CodeMismatchedQueryParams, message)
}

// Param describes the query parameter a format error refers to.
type Param interface {
	ParamName() string
	ParamTip() string
}

// InvalidQueryParamFormat reports a query value that could not be parsed.
func InvalidQueryParamFormat(param Param, value string) *Error {
	message := fmt.Sprintf("[%s] is in invalid format for Query parameter [%s]", value, param.ParamName())
	if tip := param.ParamTip(); tip != "" {
		message += fmt.Sprintf(" tip: %s", tip)
	}
	return New(CodeInvalidQueryParamFormat, message)
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(cause error) *Error {
	return &Error{
		Code:    CodeInternal,
		Message: "Internal server error",
		Cause:   cause,
	}
}
