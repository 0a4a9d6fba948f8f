package application

import (
	"errors"

	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// User-facing messages stored in the coordinator's error slot.
const (
	MsgConnectionFailed   = "Could not open the credential store."
	MsgStorageUnavailable = "Local storage is unavailable in this environment."
	MsgFetchFailed        = "Could not load credentials."
	MsgSearchFailed       = "Search failed."
	MsgAddFailed          = "Could not add the credential."
	MsgUpdateFailed       = "Could not update the credential."
	MsgDeleteFailed       = "Could not delete the credential."
	MsgClearFailed        = "Could not clear credentials."
	MsgValidationFailed   = "Service name is required."
	MsgNotFound           = "That credential no longer exists. Refresh and try again."
)

// ErrOperationFailed is matched (via errors.Is) by every error a Coordinator
// mutation returns.
var ErrOperationFailed = errors.New("operation failed")

// OperationError is returned by Coordinator mutations. Message is the same
// text placed in the error slot; Err is the store error, so errors.Is still
// reaches the driven sentinels.
type OperationError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return e.Op + ": " + e.Message
}

// Unwrap exposes the underlying store error.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is reports ErrOperationFailed as a match.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// messageFor picks the slot message for err. Kinds the caller can act on get
// specific text; everything else falls back to the operation's message.
func messageFor(err error, fallback string) string {
	switch {
	case errors.Is(err, driven.ErrValidation):
		return MsgValidationFailed
	case errors.Is(err, driven.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, driven.ErrStorageUnavailable):
		return MsgStorageUnavailable
	default:
		return fallback
	}
}
