package rides

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

// Service is the ride lifecycle engine: creation, status transitions, listing and
// sample seeding. Every operation is scoped to the calling principal.
type Service struct {
	rides  riderepo.Repository
	users  userrepo.Repository
	clk    clock.Clock
	events rideevents.Publisher
	log    *slog.Logger

	newEventID func() string

	randMu sync.Mutex
	intN   func(n int) int
}

func NewService(ridesRepo riderepo.Repository, usersRepo userrepo.Repository, clk clock.Clock, events rideevents.Publisher, log *slog.Logger) *Service {
	if events == nil {
		events = rideevents.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		rides:      ridesRepo,
		users:      usersRepo,
		clk:        clk,
		events:     events,
		log:        log,
		newEventID: uuid.NewString,
		intN:       rand.IntN,
	}
}

// SetRandForTest makes seeding draw from r.
// It should not be used in production code.
func (s *Service) SetRandForTest(r *rand.Rand) {
	if r == nil {
		return
	}
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.intN = r.IntN
}

// SetNewEventIDForTest overrides event ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewEventIDForTest(fn func() string) {
	if fn != nil {
		s.newEventID = fn
	}
}

func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateRideInput) (domain.Ride, error) {
	pickup := strings.TrimSpace(in.PickupLocation)
	dropoff := strings.TrimSpace(in.DropoffLocation)

	details := map[string]any{}
	if pickup == "" {
		details["pickup_location"] = "must be non-empty"
	}
	if dropoff == "" {
		details["dropoff_location"] = "must be non-empty"
	}
	if !in.VehicleClass.Valid() {
		details["car_type"] = "must be one of STANDARD, PREMIUM, LUXURY"
	}
	if len(details) > 0 {
		return domain.Ride{}, validationError("invalid ride", details)
	}
	if domain.SameLocation(pickup, dropoff) {
		return domain.Ride{}, validationError("pickup and drop-off locations cannot be the same", map[string]any{
			"reason":           "SAME_LOCATION",
			"dropoff_location": "must differ from pickup_location",
		})
	}

	rider, err := s.rider(ctx, p.UserID)
	if err != nil {
		return domain.Ride{}, err
	}

	r, err := s.rides.Create(ctx, riderepo.NewRide{
		UserID:          p.UserID,
		PickupLocation:  pickup,
		DropoffLocation: dropoff,
		VehicleClass:    in.VehicleClass,
		Fare:            domain.Fare(in.VehicleClass, domain.FixedDistanceKM),
		Status:          domain.RideStatusPending,
		CreatedAt:       s.clk.Now(),
	})
	if err != nil {
		if errors.Is(err, riderepo.ErrOwnerNotFound) {
			return domain.Ride{}, userNotFound(err)
		}
		s.log.ErrorContext(ctx, "create ride failed", "user_id", p.UserID, "err", err)
		return domain.Ride{}, persistenceFailure(err)
	}

	s.log.InfoContext(ctx, "ride created", "ride_id", r.ID, "user_id", r.UserID, "vehicle_class", r.VehicleClass, "fare", r.Fare.String())
	s.publish(ctx, rideevents.TypeCreated, r, nil)
	return toDomain(r, rider), nil
}

func (s *Service) Get(ctx context.Context, p authz.Principal, id domain.RideID) (domain.Ride, error) {
	r, err := s.load(ctx, p, id)
	if err != nil {
		return domain.Ride{}, err
	}
	rider, err := s.rider(ctx, p.UserID)
	if err != nil {
		return domain.Ride{}, err
	}
	return toDomain(r, rider), nil
}

// Transition moves a ride along the lifecycle graph. Only the status changes; an
// illegal edge writes nothing.
func (s *Service) Transition(ctx context.Context, p authz.Principal, id domain.RideID, to domain.RideStatus) (domain.Ride, error) {
	if !to.Valid() {
		return domain.Ride{}, validationError("invalid status", map[string]any{"status": "must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED"})
	}

	cur, err := s.load(ctx, p, id)
	if err != nil {
		return domain.Ride{}, err
	}
	if !domain.CanTransition(cur.Status, to) {
		s.log.WarnContext(ctx, "illegal ride transition", "ride_id", id, "from", cur.Status, "to", to)
		return domain.Ride{}, illegalTransition(cur.Status, to, nil)
	}

	updated, err := s.rides.UpdateStatus(ctx, id, p.UserID, cur.Status, to)
	if err != nil {
		switch {
		case errors.Is(err, riderepo.ErrNotFound):
			return domain.Ride{}, rideNotFound(err)
		case errors.Is(err, riderepo.ErrStatusConflict):
			// Another writer won; report against the status it left behind.
			latest, lerr := s.load(ctx, p, id)
			if lerr != nil {
				return domain.Ride{}, lerr
			}
			s.log.WarnContext(ctx, "ride transition lost race", "ride_id", id, "expected", cur.Status, "actual", latest.Status, "to", to)
			return domain.Ride{}, illegalTransition(latest.Status, to, err)
		default:
			s.log.ErrorContext(ctx, "update ride status failed", "ride_id", id, "err", err)
			return domain.Ride{}, persistenceFailure(err)
		}
	}

	rider, err := s.rider(ctx, p.UserID)
	if err != nil {
		return domain.Ride{}, err
	}

	from := cur.Status
	s.log.InfoContext(ctx, "ride status changed", "ride_id", id, "from", from, "to", to)
	s.publish(ctx, rideevents.TypeStatusChanged, updated, &from)
	return toDomain(updated, rider), nil
}

func (s *Service) List(ctx context.Context, p authz.Principal, in ListRidesInput) (RidePage, error) {
	q, page, err := buildListQuery(in)
	if err != nil {
		return RidePage{}, err
	}

	rs, total, err := s.rides.List(ctx, p.UserID, q)
	if err != nil {
		s.log.ErrorContext(ctx, "list rides failed", "user_id", p.UserID, "err", err)
		return RidePage{}, persistenceFailure(err)
	}

	out := RidePage{Rides: make([]domain.Ride, 0, len(rs)), Total: total, Page: page, Limit: in.Limit}
	if len(rs) == 0 {
		return out, nil
	}
	rider, err := s.rider(ctx, p.UserID)
	if err != nil {
		return RidePage{}, err
	}
	for _, r := range rs {
		out.Rides = append(out.Rides, toDomain(r, rider))
	}
	return out, nil
}

// SeedSample bulk-creates SeedCount demo rides for the caller.
//
// Seeded statuses are drawn at random and written directly, bypassing the
// transition graph. This is the only write path allowed to do so.
func (s *Service) SeedSample(ctx context.Context, p authz.Principal) (SeedResult, error) {
	rider, err := s.rider(ctx, p.UserID)
	if err != nil {
		return SeedResult{}, err
	}

	now := s.clk.Now()
	batch := make([]riderepo.NewRide, 0, SeedCount)

	s.randMu.Lock()
	for i := 0; i < SeedCount; i++ {
		pickup := s.intN(len(seedLocations))
		// Choosing among the other locations keeps pickup and dropoff distinct.
		dropoff := (pickup + 1 + s.intN(len(seedLocations)-1)) % len(seedLocations)
		class := domain.VehicleClasses[s.intN(len(domain.VehicleClasses))]
		status := domain.RideStatuses[s.intN(len(domain.RideStatuses))]
		daysAgo := s.intN(seedWindowDays)

		batch = append(batch, riderepo.NewRide{
			UserID:          p.UserID,
			PickupLocation:  seedLocations[pickup],
			DropoffLocation: seedLocations[dropoff],
			VehicleClass:    class,
			Fare:            domain.Fare(class, domain.FixedDistanceKM),
			Status:          status,
			CreatedAt:       now.AddDate(0, 0, -daysAgo),
		})
	}
	s.randMu.Unlock()

	created, err := s.rides.CreateMany(ctx, batch)
	if err != nil {
		if errors.Is(err, riderepo.ErrOwnerNotFound) {
			return SeedResult{}, userNotFound(err)
		}
		s.log.ErrorContext(ctx, "seed rides failed", "user_id", p.UserID, "err", err)
		return SeedResult{}, persistenceFailure(err)
	}

	out := SeedResult{
		Message: fmt.Sprintf("Successfully seeded %d rides", len(created)),
		Count:   len(created),
		Rides:   make([]domain.Ride, 0, len(created)),
	}
	for _, r := range created {
		s.publish(ctx, rideevents.TypeSeeded, r, nil)
		out.Rides = append(out.Rides, toDomain(r, rider))
	}
	s.log.InfoContext(ctx, "rides seeded", "user_id", p.UserID, "count", out.Count)
	return out, nil
}

func (s *Service) load(ctx context.Context, p authz.Principal, id domain.RideID) (riderepo.Ride, error) {
	r, err := s.rides.GetForUser(ctx, id, p.UserID)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return riderepo.Ride{}, rideNotFound(err)
		}
		s.log.ErrorContext(ctx, "load ride failed", "ride_id", id, "err", err)
		return riderepo.Ride{}, persistenceFailure(err)
	}
	return r, nil
}

// rider re-resolves the principal's user. The gate checked it already; this check
// reports a missing user as a business-rule failure instead of an auth failure.
func (s *Service) rider(ctx context.Context, id domain.UserID) (domain.RiderSummary, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.RiderSummary{}, userNotFound(err)
		}
		s.log.ErrorContext(ctx, "load rider failed", "user_id", id, "err", err)
		return domain.RiderSummary{}, persistenceFailure(err)
	}
	return domain.RiderSummary{FirstName: u.FirstName, LastName: u.LastName, PhoneNumber: u.PhoneNumber}, nil
}

// publish emits an event after a committed write. Failures are logged only.
func (s *Service) publish(ctx context.Context, typ rideevents.Type, r riderepo.Ride, from *domain.RideStatus) {
	e := rideevents.Event{
		ID:           s.newEventID(),
		Type:         typ,
		RideID:       r.ID,
		UserID:       r.UserID,
		FromStatus:   from,
		ToStatus:     r.Status,
		VehicleClass: r.VehicleClass,
		Fare:         r.Fare,
		OccurredAt:   s.clk.Now(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "publish ride event failed", "type", typ, "ride_id", r.ID, "err", err)
	}
}

func buildListQuery(in ListRidesInput) (riderepo.ListQuery, int, error) {
	details := map[string]any{}
	q := riderepo.ListQuery{
		Status: in.Status,
		SortBy: riderepo.SortByCreatedAt,
		Order:  riderepo.SortDesc,
	}

	if in.Status != nil && !in.Status.Valid() {
		details["status"] = "must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED"
	}
	switch strings.ToLower(strings.TrimSpace(in.SortBy)) {
	case "", string(riderepo.SortByCreatedAt):
	case string(riderepo.SortByFare):
		q.SortBy = riderepo.SortByFare
	default:
		details["sortBy"] = "must be created_at or fare"
	}
	switch strings.ToLower(strings.TrimSpace(in.SortOrder)) {
	case "", string(riderepo.SortDesc):
	case string(riderepo.SortAsc):
		q.Order = riderepo.SortAsc
	default:
		details["sortOrder"] = "must be asc or desc"
	}

	page := 1
	if in.Page != nil {
		if *in.Page < 1 {
			details["page"] = "must be >= 1"
		} else {
			page = *in.Page
		}
	}
	if in.Limit != nil {
		if *in.Limit < 1 || *in.Limit > MaxPageLimit {
			details["limit"] = fmt.Sprintf("must be between 1 and %d", MaxPageLimit)
		} else {
			q.Limit = *in.Limit
			q.Offset = (page - 1) * q.Limit
		}
	}

	if len(details) > 0 {
		return riderepo.ListQuery{}, 0, validationError("invalid list query", details)
	}
	if in.Limit == nil {
		page = 1
	}
	return q, page, nil
}

func toDomain(r riderepo.Ride, rider domain.RiderSummary) domain.Ride {
	return domain.Ride{
		ID:              r.ID,
		UserID:          r.UserID,
		PickupLocation:  r.PickupLocation,
		DropoffLocation: r.DropoffLocation,
		VehicleClass:    r.VehicleClass,
		Fare:            r.Fare,
		DistanceKM:      domain.FixedDistanceKM,
		Status:          r.Status,
		Rider:           &rider,
		CreatedAt:       r.CreatedAt,
	}
}
