// README: Error taxonomy returned by the booking core and mapped to HTTP statuses by handlers.
package types

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("unavailable")
	ErrInvalidRoute      = errors.New("invalid route")
	ErrOrderNotBookable  = errors.New("order is not bookable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyArchived   = errors.New("already archived")
	ErrAlreadyActive     = errors.New("already active")
	ErrBadRequest        = errors.New("bad request")
	ErrConcurrentUpdate  = errors.New("concurrent update")
)
