package services

import (
	"errors"
	"log"
)

// Error kinds. Every error returned by the engine is an *Error that
// unwraps to exactly one of these, so callers branch with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrNotAParticipant        = errors.New("not a participant")
	ErrForbidden              = errors.New("forbidden")
	ErrMuted                  = errors.New("muted")
	ErrAlreadyMember          = errors.New("already a member")
	ErrAlreadyMemberOrPending = errors.New("already a member or pending")
	ErrAlreadyHandled         = errors.New("already handled")
	ErrAlreadyBlocked         = errors.New("already blocked")
	ErrNotBlocked             = errors.New("not blocked")
	ErrTooLate                = errors.New("too late")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrNotAGroup              = errors.New("not a group")
	ErrPrivateGroup           = errors.New("private group")
	ErrBlocked                = errors.New("blocked")
	ErrReplyTargetNotFound    = errors.New("reply target not found")
	ErrCannotChangeOwner      = errors.New("cannot change owner")
	ErrLimitExceeded          = errors.New("limit exceeded")
	ErrInternal               = errors.New("internal error")
)

var kinds = []error{
	ErrNotFound, ErrNotAParticipant, ErrForbidden, ErrMuted,
	ErrAlreadyMember, ErrAlreadyMemberOrPending, ErrAlreadyHandled, ErrAlreadyBlocked,
	ErrNotBlocked, ErrTooLate, ErrInvalidArgument, ErrNotAGroup, ErrPrivateGroup,
	ErrBlocked, ErrReplyTargetNotFound, ErrCannotChangeOwner, ErrLimitExceeded, ErrInternal,
}

// Error is a caller-facing failure with a human readable message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Kind returns the sentinel an error unwraps to, or ErrInternal for
// anything that did not originate in the engine.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// internalError logs the storage detail and hides it from the caller.
func internalError(op string, err error) error {
	log.Printf("engine: op=%s: %v", op, err)
	return newError(ErrInternal, "internal error")
}
