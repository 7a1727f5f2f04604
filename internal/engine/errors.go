package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for virtual-node management and override validation.
// The HTTP layer maps them onto status codes with errors.Is.
var (
	// ErrNameTaken rejects a virtual node whose name is already owned by a
	// node, client, user journey, or another virtual node.
	ErrNameTaken = errors.New("name already in use")
	// ErrUnknownChild rejects a member that is not a current sibling in the
	// requested scope.
	ErrUnknownChild = errors.New("not a sibling in the requested scope")
	// ErrOverlappingGroup rejects a member that another virtual node has
	// already claimed.
	ErrOverlappingGroup = errors.New("already grouped")
	// ErrInvalidStatus rejects an override value outside healthy/warn/error.
	ErrInvalidStatus = errors.New("status cannot be pinned")
)

// InputError rejects a malformed request before any state changes. The
// message is safe to surface to the caller.
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

func inputErrf(format string, args ...any) *InputError {
	return &InputError{msg: fmt.Sprintf(format, args...)}
}
