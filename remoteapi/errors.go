package remoteapi

import (
	"fmt"
	"strings"
)

// Kind classifies a Remote API error response.
type Kind string

const (
	KindAny                          Kind = "any"
	KindTimeout                      Kind = "timeout"
	KindIllegalArgument              Kind = "illegalArgument"
	KindIllegalDataFormat            Kind = "illegalDataFormat"
	KindIllegalRequest               Kind = "illegalRequest"
	KindIllegalResponse              Kind = "illegalResponse"
	KindIllegalState                 Kind = "illegalState"
	KindIllegalType                  Kind = "illegalType"
	KindOutOfBounds                  Kind = "outOfBounds"
	KindNoSuchElement                Kind = "noSuchElement"
	KindNoSuchField                  Kind = "noSuchField"
	KindNoSuchMethod                 Kind = "noSuchMethod"
	KindNullPointer                  Kind = "nullPointer"
	KindUnsupportedVersion           Kind = "unsupportedVersion"
	KindUnsupportedOperation         Kind = "unsupportedOperation"
	KindShootingFail                 Kind = "shootingFail"
	KindCameraNotReady               Kind = "cameraNotReady"
	KindAlreadyRunningPollingAPI     Kind = "alreadyRunningPollingAPI"
	KindStillCapturingNotFinished    Kind = "stillCapturingNotFinished"
	KindSomeContentCouldNotBeDeleted Kind = "someContentCouldNotBeDeleted"
	KindNotAvailable                 Kind = "notAvailable"
)

var errorKinds = map[int]Kind{
	1:     KindAny,
	2:     KindTimeout,
	3:     KindIllegalArgument,
	4:     KindIllegalDataFormat,
	5:     KindIllegalRequest,
	6:     KindIllegalResponse,
	7:     KindIllegalState,
	8:     KindIllegalType,
	9:     KindOutOfBounds,
	10:    KindNoSuchElement,
	11:    KindNoSuchField,
	12:    KindNoSuchMethod,
	13:    KindNullPointer,
	14:    KindUnsupportedVersion,
	15:    KindUnsupportedOperation,
	40400: KindShootingFail,
	40401: KindCameraNotReady,
	40402: KindAlreadyRunningPollingAPI,
	40403: KindStillCapturingNotFinished,
	41003: KindSomeContentCouldNotBeDeleted,
}

const notAvailableMessage = "not available now"

// Error is an error response to a Remote API call.
type Error struct {
	Kind    Kind
	Code    int
	Method  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%d): %s", e.Method, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Method, e.Kind, e.Code)
}

// Is matches errors of the same kind, so errors.Is(err,
// &Error{Kind: KindNoSuchMethod}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

// decodeError maps the [code, message] error member of a response. It
// returns nil for code 0 and for codes outside the table.
func decodeError(method string, fields []interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	num, ok := fields[0].(float64)
	if !ok {
		return nil
	}
	e := &Error{Code: int(num), Method: method}
	if len(fields) > 1 {
		e.Message, _ = fields[len(fields)-1].(string)
	}

	if strings.ToLower(e.Message) == notAvailableMessage {
		e.Kind = KindNotAvailable
		return e
	}
	kind, ok := errorKinds[e.Code]
	if !ok {
		return nil
	}
	e.Kind = kind
	return e
}
