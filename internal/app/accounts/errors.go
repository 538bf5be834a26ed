package accounts

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	// Err is the underlying cause, kept for logs.
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

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailAlreadyInUse  = "EMAIL_ALREADY_IN_USE"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodePersistence        = "PERSISTENCE_FAILURE"
	CodeInternal           = "INTERNAL"
)

var errInvalidCredentials = &Error{Status: 401, Code: CodeInvalidCredentials, Message: "invalid email or password"}

func persistenceFailure(err error) *Error {
	return &Error{Status: 500, Code: CodePersistence, Message: "internal error", Err: err}
}

func internalError(err error) *Error {
	return &Error{Status: 500, Code: CodeInternal, Message: "internal error", Err: err}
}
