// Package storage holds what the backends share: the error taxonomy the
// rest of the app branches on, and the active-plan resolution rules.
package storage

import (
	"errors"
	"fmt"

	"github.com/avelasco/payplan/internal/httpclient"
)

// Kind classifies a storage failure so callers can branch on it without
// knowing which backend produced it.
type Kind string

const (
	// KindQuotaExceeded means the device store refused the write for
	// size reasons. User-actionable: free up records.
	KindQuotaExceeded Kind = "quota_exceeded"
	// KindCorruptData means stored data could not be parsed where
	// silent degradation would risk data loss.
	KindCorruptData Kind = "corrupt_data"
	// KindNetwork covers connection- and timeout-shaped failures. These
	// are the only failures the sync engine queues for replay.
	KindNetwork Kind = "network"
	// KindConfig means the backend cannot be constructed as configured.
	KindConfig   Kind = "config"
	KindInternal Kind = "internal"
)

// Error is the uniform storage-layer failure. Message is the internal
// diagnostic; UserMessage is safe to show as-is.
type Error struct {
	Kind        Kind
	Op          string
	Message     string
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a storage error with a generic user message.
func NewError(kind Kind, op, message string, cause error) *Error {
	return &Error{
		Kind:        kind,
		Op:          op,
		Message:     message,
		UserMessage: userMessageFor(kind),
		Err:         cause,
	}
}

func userMessageFor(kind Kind) string {
	switch kind {
	case KindQuotaExceeded:
		return "Local storage is full. Delete old plans to free up space."
	case KindCorruptData:
		return "Stored data could not be read. Your plans may need to be restored."
	case KindNetwork:
		return "Connection problem. Your change will be retried when you are back online."
	case KindConfig:
		return "The app is not configured correctly."
	default:
		return "Something went wrong. Please try again."
	}
}

// KindOf returns the kind of a storage error, or KindInternal for
// anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	return KindInternal
}

// IsNetwork reports whether the failure is connection- or timeout-shaped
// and therefore eligible for the sync engine's queue. Validation and
// not-found errors never qualify: retrying them changes nothing.
func IsNetwork(err error) bool {
	var se *Error
	if errors.As(err, &se) && se.Kind == KindNetwork {
		return true
	}

	var ne *httpclient.NetworkError
	if errors.As(err, &ne) {
		return true
	}

	var te *httpclient.TimeoutError

	return errors.As(err, &te)
}
