package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure so the CLI can pick a message and exit code.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindToolUnavailable  Kind = "tool_unavailable"
	KindAlreadyExists    Kind = "already_exists"
	KindDownloadFailed   Kind = "download_failed"
	KindExtractionFailed Kind = "extraction_failed"
	KindGenerationFailed Kind = "generation_failed"
	KindEmptyResult      Kind = "empty_result"
	KindAuth             Kind = "auth"
	KindBlocked          Kind = "blocked"
	KindConfiguration    Kind = "configuration"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// E builds an AppError. A non-nil cause is wrapped with a stack trace.
func E(kind Kind, op string, err error, message string) *AppError {
	if err != nil {
		err = pkgerrors.WithStack(err)
	}
	return &AppError{
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return E(KindInvalidInput, op, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return E(KindNotFound, op, err, message)
}

func ToolUnavailable(op string, err error, message string) *AppError {
	return E(KindToolUnavailable, op, err, message)
}

func AlreadyExists(op string, err error, message string) *AppError {
	return E(KindAlreadyExists, op, err, message)
}

func DownloadFailed(op string, err error, message string) *AppError {
	return E(KindDownloadFailed, op, err, message)
}

func ExtractionFailed(op string, err error, message string) *AppError {
	return E(KindExtractionFailed, op, err, message)
}

func GenerationFailed(op string, err error, message string) *AppError {
	return E(KindGenerationFailed, op, err, message)
}

func EmptyResult(op string, err error, message string) *AppError {
	return E(KindEmptyResult, op, err, message)
}

func Auth(op string, err error, message string) *AppError {
	return E(KindAuth, op, err, message)
}

func Blocked(op string, err error, message string) *AppError {
	return E(KindBlocked, op, err, message)
}

func Configuration(op string, err error, message string) *AppError {
	return E(KindConfiguration, op, err, message)
}

// KindOf returns the Kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	return Is(err, KindNotFound)
}
