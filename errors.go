package vhttpd

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Unique identifier for categorizing errors in logs and in the pipeline
type ErrorCode string

const (
	ErrBadRequest       ErrorCode = "err_bad_request"
	ErrNotFound         ErrorCode = "err_not_found"
	ErrMethodNotAllowed ErrorCode = "err_method_not_allowed"
	ErrInternal         ErrorCode = "err_internal_error"
	ErrInvalidData      ErrorCode = "err_invalid_data"

	// Startup only, never answered on the wire
	ErrConfig ErrorCode = "err_config"
)

// Error is the standardized error type carried through the request pipeline.
// StatusCode is the code the failure is answered with.
type Error struct {
	Original   error
	Code       ErrorCode
	StatusCode int
	Message    string

	file     string
	line     int
	function string
}

type errorDef struct {
	Message    string
	StatusCode int
}

var predefinedErrors = map[ErrorCode]errorDef{
	ErrBadRequest:       {"Bad request", http.StatusBadRequest},
	ErrNotFound:         {"Not found", http.StatusNotFound},
	ErrMethodNotAllowed: {"Method not allowed", http.StatusMethodNotAllowed},
	ErrInternal:         {"Internal error", http.StatusInternalServerError},
	ErrInvalidData:      {"Invalid data", http.StatusInternalServerError},
	ErrConfig:           {"Invalid configuration", http.StatusInternalServerError},
}

func (e *Error) Error() string {
	base := fmt.Sprintf("[vhttpd:%s] %s", e.Code, e.Message)
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", base, e.Original)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Original
}

func (e *Error) capture(skip int) {
	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		e.file = file
		e.line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.function = fn.Name()
		}
	}
}

func newError(code ErrorCode, msg string) *Error {
	def, ok := predefinedErrors[code]
	if !ok {
		def = predefinedErrors[ErrInternal]
	}
	if msg == "" {
		msg = def.Message
	}
	return &Error{
		Code:       code,
		StatusCode: def.StatusCode,
		Message:    msg,
	}
}

func New(code ErrorCode, msg string) *Error {
	err := newError(code, msg)
	err.capture(1)
	return err
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	err := newError(code, fmt.Sprintf(format, args...))
	err.capture(1)
	return err
}

// Wrap attaches a code to err. An existing *Error is updated in place.
func Wrap(err error, code ErrorCode, msg string) *Error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		if code != "" {
			e.Code = code
			if def, ok := predefinedErrors[code]; ok {
				e.StatusCode = def.StatusCode
			}
		}
		if msg != "" {
			e.Message = msg
		}
		e.capture(1)
		return e
	}

	e := newError(code, msg)
	e.Original = errors.WithStack(err)
	e.capture(1)
	return e
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	e := Wrap(err, code, fmt.Sprintf(format, args...))
	e.capture(1)
	return e
}

func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// StatusOf returns the status an error is answered with, 500 for foreign errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// LogError logs err with its code and the captured caller.
func LogError(logger *zerolog.Logger, err error) {
	logErrorInternal(logger, err, "")
}

// LogErrorWithConn logs err with the connection id attached
func LogErrorWithConn(logger *zerolog.Logger, err error, connID string) {
	logErrorInternal(logger, err, connID)
}

func logErrorInternal(logger *zerolog.Logger, err error, connID string) {
	if err == nil || logger == nil {
		return
	}

	event := logger.Error().Stack().Err(err)
	if connID != "" {
		event = event.Str("conn_id", connID)
	}

	var e *Error
	if errors.As(err, &e) {
		shortFile := e.file
		if idx := strings.LastIndex(shortFile, "/"); idx >= 0 {
			shortFile = shortFile[idx+1:]
		}
		event = event.
			Str("error_code", string(e.Code)).
			Int("status_code", e.StatusCode).
			Str("file", shortFile).
			Int("line", e.line).
			Str("function", e.function)
	}

	event.Msg("[vhttpd-error] Error occurred")
}
