package types

import "errors"

// Sentinel errors shared by services and handlers. Services wrap them with
// context and handlers map them to status codes via errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("duplicate name")
	ErrStorage    = errors.New("storage error")
)
