package riderepo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

// Owners resolves ride owners. The memory user repository satisfies it.
type Owners interface {
	GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error)
}

// Repo is an in-memory implementation of riderepo.Repository.
// It is safe for concurrent use; every write happens under a single lock, so
// UpdateStatus is a compare-and-set.
type Repo struct {
	mu sync.RWMutex

	owners Owners
	nextID domain.RideID
	byID   map[domain.RideID]riderepo.Ride
}

// NewRepo returns an empty repository. When owners is non-nil, writes for users it
// does not know fail with riderepo.ErrOwnerNotFound, mirroring a foreign key.
func NewRepo(owners Owners) *Repo {
	return &Repo{
		owners: owners,
		byID:   make(map[domain.RideID]riderepo.Ride),
	}
}

func (r *Repo) Create(ctx context.Context, nr riderepo.NewRide) (riderepo.Ride, error) {
	out, err := r.CreateMany(ctx, []riderepo.NewRide{nr})
	if err != nil {
		return riderepo.Ride{}, err
	}
	return out[0], nil
}

func (r *Repo) CreateMany(ctx context.Context, rs []riderepo.NewRide) ([]riderepo.Ride, error) {
	// Validate everything before touching state so a failure stores nothing.
	for _, nr := range rs {
		if err := r.checkOwner(ctx, nr.UserID); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]riderepo.Ride, 0, len(rs))
	for _, nr := range rs {
		r.nextID++
		ride := riderepo.Ride{
			ID:              r.nextID,
			UserID:          nr.UserID,
			PickupLocation:  nr.PickupLocation,
			DropoffLocation: nr.DropoffLocation,
			VehicleClass:    nr.VehicleClass,
			Fare:            nr.Fare,
			Status:          nr.Status,
			CreatedAt:       nr.CreatedAt,
		}
		r.byID[ride.ID] = ride
		out = append(out, ride)
	}
	return out, nil
}

func (r *Repo) GetForUser(ctx context.Context, id domain.RideID, userID domain.UserID) (riderepo.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ride, ok := r.byID[id]
	if !ok || ride.UserID != userID {
		return riderepo.Ride{}, riderepo.ErrNotFound
	}
	return ride, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.RideID, userID domain.UserID, from, to domain.RideStatus) (riderepo.Ride, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.byID[id]
	if !ok || ride.UserID != userID {
		return riderepo.Ride{}, riderepo.ErrNotFound
	}
	if ride.Status != from {
		return riderepo.Ride{}, riderepo.ErrStatusConflict
	}
	ride.Status = to
	r.byID[id] = ride
	return ride, nil
}

func (r *Repo) List(ctx context.Context, userID domain.UserID, q riderepo.ListQuery) ([]riderepo.Ride, int, error) {
	_ = ctx
	r.mu.RLock()
	matched := make([]riderepo.Ride, 0)
	for _, ride := range r.byID {
		if ride.UserID != userID {
			continue
		}
		if q.Status != nil && ride.Status != *q.Status {
			continue
		}
		matched = append(matched, ride)
	}
	r.mu.RUnlock()

	sortRides(matched, q.SortBy, q.Order)

	total := len(matched)
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []riderepo.Ride{}, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *Repo) checkOwner(ctx context.Context, userID domain.UserID) error {
	if r.owners == nil {
		return nil
	}
	if _, err := r.owners.GetByID(ctx, userID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return riderepo.ErrOwnerNotFound
		}
		return err
	}
	return nil
}

func sortRides(rs []riderepo.Ride, by riderepo.SortField, order riderepo.SortOrder) {
	asc := order == riderepo.SortAsc
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		var cmp int
		switch by {
		case riderepo.SortByFare:
			cmp = compareInt64(int64(a.Fare), int64(b.Fare))
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
