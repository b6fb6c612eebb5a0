package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrDefinitionNotFound is returned when a catalog has no definition for an ID.
var ErrDefinitionNotFound = errors.New("definition not found")

// Reason is the machine-readable cause of a rejected edit.
type Reason string

const (
	ReasonNotFound         Reason = "not_found"
	ReasonSelfConnection   Reason = "self_connection"
	ReasonInvalidDirection Reason = "invalid_direction"
	ReasonTargetSaturated  Reason = "target_saturated"
	ReasonSourceSaturated  Reason = "source_saturated"
	ReasonDuplicate        Reason = "duplicate"
	ReasonConflict         Reason = "conflict"
	ReasonInvalidSize      Reason = "invalid_size"
	ReasonCardinality      Reason = "cardinality"
	ReasonEmptySelection   Reason = "empty_selection"
)

// Sentinel errors, one per Reason, for use with errors.Is.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrSelfConnection   = errors.New("self-connection")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrTargetSaturated  = errors.New("target saturated")
	ErrSourceSaturated  = errors.New("source saturated")
	ErrDuplicate        = errors.New("duplicate connection")
	ErrConflict         = errors.New("id already in use")
	ErrInvalidSize      = errors.New("invalid size")
	ErrCardinality      = errors.New("port cardinality would be violated")
	ErrEmptySelection   = errors.New("empty selection")
	errUnknownRejection = errors.New("rejected")
)

var reasonErrors = map[Reason]error{
	ReasonNotFound:         ErrNotFound,
	ReasonSelfConnection:   ErrSelfConnection,
	ReasonInvalidDirection: ErrInvalidDirection,
	ReasonTargetSaturated:  ErrTargetSaturated,
	ReasonSourceSaturated:  ErrSourceSaturated,
	ReasonDuplicate:        ErrDuplicate,
	ReasonConflict:         ErrConflict,
	ReasonInvalidSize:      ErrInvalidSize,
	ReasonCardinality:      ErrCardinality,
	ReasonEmptySelection:   ErrEmptySelection,
}

// RejectError reports a validation rejection. It is an expected outcome of an
// edit, never a programming error.
type RejectError struct {
	Op       string
	Reason   Reason
	Entities []string
}

// Reject builds a RejectError.
func Reject(op string, reason Reason, entities ...string) *RejectError {
	return &RejectError{Op: op, Reason: reason, Entities: entities}
}

func (e *RejectError) Error() string {
	if len(e.Entities) == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Unwrap())
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Unwrap(), strings.Join(e.Entities, ", "))
}

// Unwrap returns the sentinel error of the reason.
func (e *RejectError) Unwrap() error {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err
	}
	return errUnknownRejection
}

// ReasonOf extracts the rejection reason of err, if any.
func ReasonOf(err error) (Reason, bool) {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
