package ptp

import (
	"errors"
	"fmt"
	"io"
)

// Device is a PTP transport: PTP/IP over TCP or PTP over USB bulk
// endpoints. Transactions are serialized by the implementation. Events
// pushed by the camera are delivered on the Events channel, which is
// closed when the device is closed or the event stream fails.
type Device interface {
	// Configure opens the transport and a PTP session.
	Configure() error
	Close() error
	RunTransaction(req *Container, rep *Container, dest io.Writer, src io.Reader, writeSize int64) error
	Events() <-chan Container
}

type sessionData struct {
	tid uint32
	sid uint32
}

// RCError are return codes from the Container.Code field.
type RCError uint16

func (e RCError) Error() string {
	n, ok := RC_names[int(e)]
	if ok {
		return n
	}
	return fmt.Sprintf("RetCode %x", uint16(e))
}

// IsRC reports whether err carries the given return code.
func IsRC(err error, code uint16) bool {
	var rc RCError
	return errors.As(err, &rc) && uint16(rc) == code
}

// SyncError is an error type that indicates lost transaction
// synchronization in the protocol.
type SyncError string

func (s SyncError) Error() string {
	return string(s)
}

type Catastrophic string

func (f Catastrophic) Error() string {
	return string(f)
}

// InitFailError is returned when a PTP/IP responder refuses the
// connection.
type InitFailError uint32

func (e InitFailError) Error() string {
	return fmt.Sprintf("ptpip init failed: reason %#x", uint32(e))
}

// The linux usb stack can send 16kb per call, according to libusb.
const rwBufSize = 0x4000

func getName(m map[int]string, code int) string {
	n, ok := m[code]
	if ok {
		return n
	}
	return fmt.Sprintf("%#x", code)
}
