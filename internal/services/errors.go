package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fisioclinic/clinic-backend/internal/store"
	"github.com/google/uuid"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidState
	KindConflict
	KindValidation
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error is the single typed failure every service operation returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or zero if err is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// fromStore classifies a store error. entity names the record for
// not-found and duplicate messages.
func fromStore(err error, entity string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: entity + " not found", Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindConflict, Message: entity + " already exists", Err: err}
	}
	return &Error{Kind: KindStore, Message: "failed to access " + entity, Err: err}
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseInstant accepts RFC 3339 or a naive ISO-8601 timestamp. Naive values
// are read as UTC.
func ParseInstant(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, validation("%s is required", field)
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, validation("%s must be an ISO-8601 timestamp", field)
}

// ParseID parses a uuid path or body field.
func ParseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, validation("%s must be a valid id", field)
	}
	return id, nil
}
