package sony

import (
	"errors"
	"fmt"

	"github.com/hanwen/go-sonyptp/ptp"
)

var (
	// ErrObjectNotFound is returned when no captured object shows up
	// before the object wait times out.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPropCodeNotFound is returned by a targeted fetch that did not
	// yield every requested property.
	ErrPropCodeNotFound = errors.New("property code not found")

	ErrAnotherSessionOpen    = errors.New("another session is open on the camera")
	ErrOperationNotSupported = errors.New("operation not supported by device")

	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotSupported is returned for functions this transport cannot
	// perform at all.
	ErrNotSupported = errors.New("not supported over PTP/IP")

	// ErrNotAvailable is returned when a function is supported but
	// cannot run in the current camera state.
	ErrNotAvailable = errors.New("not available now")
)

// CommandFailedError is a PTP response code other than OK.
type CommandFailedError struct {
	Code ptp.RCError
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed: %v", e.Code)
}

func (e *CommandFailedError) Unwrap() error {
	return e.Code
}

type NoSuchMethodError struct {
	Method Function
}

func (e *NoSuchMethodError) Error() string {
	return fmt.Sprintf("no such method %q", e.Method)
}

// commandError turns a transport return code into a CommandFailedError
// and leaves other errors alone.
func commandError(err error) error {
	var rc ptp.RCError
	if err != nil && errors.As(err, &rc) {
		return &CommandFailedError{Code: rc}
	}
	return err
}
