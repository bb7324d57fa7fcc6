package protocol

import "errors"

// Protocol errors carried back to the client as ERROR frames. The error
// string is the stable wire code, so these must never be reworded.
var (
	ErrUnknownCommand   = errors.New("UnknownCommand")
	ErrMalformedPayload = errors.New("MalformedPayload")
	ErrPersistence      = errors.New("PersistenceError")
)

// ErrorCode maps an error to its wire code. Unrecognized errors are reported
// as persistence failures since those are the only unclassified errors that
// can reach a client.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return ErrUnknownCommand.Error()
	case errors.Is(err, ErrMalformedPayload):
		return ErrMalformedPayload.Error()
	default:
		return ErrPersistence.Error()
	}
}
