package riderepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
)

// Repo is a Postgres implementation of riderepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const rideColumns = `id, user_id, pickup_location, dropoff_location, vehicle_class, fare_cents, status, created_at`

const insertRide = `
	INSERT INTO rides (user_id, pickup_location, dropoff_location, vehicle_class, fare_cents, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + rideColumns

func (r *Repo) Create(ctx context.Context, nr riderepo.NewRide) (riderepo.Ride, error) {
	if r.pool == nil {
		return riderepo.Ride{}, errors.New("nil postgres pool")
	}
	ride, err := scanRide(r.pool.QueryRow(ctx, insertRide, insertArgs(nr)...))
	if err != nil {
		return riderepo.Ride{}, mapWriteError(err)
	}
	return ride, nil
}

func (r *Repo) CreateMany(ctx context.Context, rs []riderepo.NewRide) ([]riderepo.Ride, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	out := make([]riderepo.Ride, 0, len(rs))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, nr := range rs {
			ride, err := scanRide(tx.QueryRow(ctx, insertRide, insertArgs(nr)...))
			if err != nil {
				return mapWriteError(err)
			}
			out = append(out, ride)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetForUser(ctx context.Context, id domain.RideID, userID domain.UserID) (riderepo.Ride, error) {
	if r.pool == nil {
		return riderepo.Ride{}, errors.New("nil postgres pool")
	}
	ride, err := scanRide(r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 AND user_id = $2`, int64(id), int64(userID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return riderepo.Ride{}, riderepo.ErrNotFound
		}
		return riderepo.Ride{}, err
	}
	return ride, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id domain.RideID, userID domain.UserID, from, to domain.RideStatus) (riderepo.Ride, error) {
	if r.pool == nil {
		return riderepo.Ride{}, errors.New("nil postgres pool")
	}
	ride, err := scanRide(r.pool.QueryRow(ctx, `
		UPDATE rides SET status = $4
		WHERE id = $1 AND user_id = $2 AND status = $3
		RETURNING `+rideColumns,
		int64(id), int64(userID), string(from), string(to),
	))
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return riderepo.Ride{}, err
	}

	// No row matched: either the ride is not the user's or another writer moved it.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1 AND user_id = $2)`, int64(id), int64(userID)).Scan(&exists); err != nil {
		return riderepo.Ride{}, err
	}
	if !exists {
		return riderepo.Ride{}, riderepo.ErrNotFound
	}
	return riderepo.Ride{}, riderepo.ErrStatusConflict
}

func (r *Repo) List(ctx context.Context, userID domain.UserID, q riderepo.ListQuery) ([]riderepo.Ride, int, error) {
	if r.pool == nil {
		return nil, 0, errors.New("nil postgres pool")
	}

	var status *string
	if q.Status != nil {
		s := string(*q.Status)
		status = &s
	}
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM rides
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
	`, int64(userID), status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM rides
		WHERE user_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY %s
		LIMIT $3 OFFSET $4
	`, rideColumns, orderBy(q.SortBy, q.Order)), int64(userID), status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (riderepo.Ride, error) {
		return scanRide(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// orderBy renders a whitelisted ORDER BY clause; ties always go to id ascending.
func orderBy(by riderepo.SortField, order riderepo.SortOrder) string {
	col := "created_at"
	if by == riderepo.SortByFare {
		col = "fare_cents"
	}
	dir := "DESC"
	if order == riderepo.SortAsc {
		dir = "ASC"
	}
	return col + " " + dir + ", id ASC"
}

func insertArgs(nr riderepo.NewRide) []any {
	return []any{
		int64(nr.UserID),
		nr.PickupLocation,
		nr.DropoffLocation,
		string(nr.VehicleClass),
		nr.Fare.Cents(),
		string(nr.Status),
		nr.CreatedAt.UTC(),
	}
}

func mapWriteError(err error) error {
	if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.ForeignKeyViolationCode && pe.ConstraintName == "rides_user_fk" {
		return riderepo.ErrOwnerNotFound
	}
	return err
}

func scanRide(row pgx.Row) (riderepo.Ride, error) {
	var (
		r             riderepo.Ride
		id, userID    int64
		class, status string
		fareCents     int64
	)
	if err := row.Scan(&id, &userID, &r.PickupLocation, &r.DropoffLocation, &class, &fareCents, &status, &r.CreatedAt); err != nil {
		return riderepo.Ride{}, err
	}
	r.ID = domain.RideID(id)
	r.UserID = domain.UserID(userID)
	r.VehicleClass = domain.VehicleClass(class)
	r.Fare = domain.Money(fareCents)
	r.Status = domain.RideStatus(status)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}
