package authz

const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeForbidden       = "FORBIDDEN"
	CodeGateFailure     = "GATE_FAILURE"
)

// Error is a gate rejection that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	// Err is the underlying cause; it is logged, never sent to clients.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func unauthenticated(msg string, cause error) *Error {
	return &Error{Status: 401, Code: CodeUnauthenticated, Message: msg, Err: cause}
}
