package rides

import "github.com/Overland-East-Bay/ride-booking-api/internal/domain"

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
	CodeValidation        = "VALIDATION_ERROR"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeRideNotFound      = "RIDE_NOT_FOUND"
	CodeIllegalTransition = "ILLEGAL_TRANSITION"
	CodePersistence       = "PERSISTENCE_FAILURE"
)

func validationError(msg string, details map[string]any) *Error {
	return &Error{Status: 422, Code: CodeValidation, Message: msg, Details: details}
}

func userNotFound(err error) *Error {
	return &Error{Status: 422, Code: CodeUserNotFound, Message: "user not found", Err: err}
}

func rideNotFound(err error) *Error {
	return &Error{Status: 404, Code: CodeRideNotFound, Message: "ride not found", Err: err}
}

func illegalTransition(from, to domain.RideStatus, err error) *Error {
	allowed := domain.NextStatuses(from)
	names := make([]string, 0, len(allowed))
	for _, s := range allowed {
		names = append(names, string(s))
	}
	return &Error{
		Status:  409,
		Code:    CodeIllegalTransition,
		Message: "invalid status transition",
		Details: map[string]any{"from": string(from), "to": string(to), "allowed": names},
		Err:     err,
	}
}

func persistenceFailure(err error) *Error {
	return &Error{Status: 500, Code: CodePersistence, Message: "internal error", Err: err}
}
