package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
)

// ErrorResponse is the envelope of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeAppError maps application errors to responses. Causes are logged; only
// codes, messages and details reach the client.
func writeAppError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		status  = http.StatusInternalServerError
		code    = "INTERNAL"
		message = "internal error"
		details map[string]any
	)

	if re := (*rides.Error)(nil); errors.As(err, &re) {
		status, code, message, details = re.Status, re.Code, re.Message, re.Details
	} else if ae := (*accounts.Error)(nil); errors.As(err, &ae) {
		status, code, message, details = ae.Status, ae.Code, ae.Message, ae.Details
	} else if ge := (*authz.Error)(nil); errors.As(err, &ge) {
		status, code, message = ge.Status, ge.Code, ge.Message
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="rides"`)
		}
	}

	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
	}
	writeError(w, r, status, code, message, details)
}
