package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Accounts *accounts.Service
	Rides    *rides.Service
	Idem     idempotency.Store
	Clock    clock.Clock
	Log      *slog.Logger
}

func NewServer(accountsSvc *accounts.Service, ridesSvc *rides.Service, idem idempotency.Store, clk clock.Clock, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Accounts: accountsSvc, Rides: ridesSvc, Idem: idem, Clock: clk, Log: log}
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Accounts.Register(r.Context(), accounts.RegisterInput{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Email:       body.Email,
		Password:    body.Password,
		PhoneNumber: body.PhoneNumber,
	})
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerFromResult(res))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !s.decode(w, r, &body) {
		return
	}
	res, err := s.Accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginFromResult(res))
}

func (s *Server) CreateRide(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	var body createRideRequest
	if !s.decode(w, r, &body) {
		return
	}

	idem, done := s.beginIdempotent(w, r, p, "/rides", hashCreateRideBody(body))
	if done {
		return
	}

	class, ok := domain.ParseVehicleClass(body.CarType)
	if !ok {
		// The service reports the unknown class with field details.
		class = domain.VehicleClass(body.CarType)
	}
	ride, err := s.Rides.Create(r.Context(), p, rides.CreateRideInput{
		PickupLocation:  body.PickupLocation,
		DropoffLocation: body.DropoffLocation,
		VehicleClass:    class,
	})
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	b := writeJSON(w, http.StatusCreated, rideFromDomain(ride))
	s.finishIdempotent(r, idem, http.StatusCreated, b)
}

func (s *Server) ListRides(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var (
		status, sortBy, sortOrder *string
		page, limit               *int
	)
	q := r.URL.Query()
	params := []struct {
		name string
		dest any
	}{
		{"status", &status},
		{"sortBy", &sortBy},
		{"sortOrder", &sortOrder},
		{"page", &page},
		{"limit", &limit},
	}
	details := map[string]any{}
	for _, prm := range params {
		if err := runtime.BindQueryParameter("form", true, false, prm.name, q, prm.dest); err != nil {
			details[prm.name] = "invalid value"
		}
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, rides.CodeValidation, "invalid list query", details)
		return
	}

	in := rides.ListRidesInput{Page: page, Limit: limit}
	if status != nil {
		st, ok := domain.ParseRideStatus(*status)
		if !ok {
			st = domain.RideStatus(*status)
		}
		in.Status = &st
	}
	if sortBy != nil {
		in.SortBy = *sortBy
	}
	if sortOrder != nil {
		in.SortOrder = *sortOrder
	}

	res, err := s.Rides.List(r.Context(), p, in)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, listFromPage(res))
}

func (s *Server) GetRide(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	id, ok := rideIDParam(w, r)
	if !ok {
		return
	}
	ride, err := s.Rides.Get(r.Context(), p, id)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rideFromDomain(ride))
}

func (s *Server) UpdateRideStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	id, ok := rideIDParam(w, r)
	if !ok {
		return
	}
	var body updateRideStatusRequest
	if !s.decode(w, r, &body) {
		return
	}
	to, ok := domain.ParseRideStatus(body.Status)
	if !ok {
		to = domain.RideStatus(body.Status)
	}
	ride, err := s.Rides.Transition(r.Context(), p, id, to)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rideFromDomain(ride))
}

func (s *Server) SeedRides(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	idem, done := s.beginIdempotent(w, r, p, "/rides/seed", hashEmptyBody())
	if done {
		return
	}
	res, err := s.Rides.SeedSample(r.Context(), p)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return
	}
	b := writeJSON(w, http.StatusCreated, seedRidesResponse{
		Message: res.Message,
		Count:   res.Count,
		Rides:   ridesFromDomain(res.Rides),
	})
	s.finishIdempotent(r, idem, http.StatusCreated, b)
}

func (s *Server) principal(w http.ResponseWriter, r *http.Request) (authz.Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, authz.CodeUnauthenticated, "missing principal", nil)
		return authz.Principal{}, false
	}
	return p, true
}

// decode reads a single JSON object into dst. Malformed bodies are answered with
// 422 and decode returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("unexpected data after JSON object")
	}
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, rides.CodeValidation, "invalid JSON body", map[string]any{"body": err.Error()})
		return false
	}
	return true
}

func rideIDParam(w http.ResponseWriter, r *http.Request) (domain.RideID, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, rides.CodeValidation, "invalid ride id", map[string]any{"id": "must be an integer"})
		return 0, false
	}
	return domain.RideID(id), true
}

// writeJSON writes v and returns the encoded body for idempotent replay.
func writeJSON(w http.ResponseWriter, status int, v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
	return b
}
