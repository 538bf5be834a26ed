package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	idempotencyport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
	riderepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	userrepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

type UserRepoFactory func(t *testing.T) (userrepoport.Repository, CleanupFunc)

// RideRepoFactory returns a ride repository together with the user repository its
// foreign keys refer to.
type RideRepoFactory func(t *testing.T) (userrepoport.Repository, riderepoport.Repository, CleanupFunc)

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		UserID:   domain.UserID(1),
		Method:   "POST",
		Route:    "/rides",
		BodyHash: "abc",
	}

	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("expected miss before Put, got ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":1}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":1}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Same key from another user is a different request.
	other := fp
	other.UserID = 2
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for other user, got ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":2}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":2}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + uuid.NewString() + "@example.com"
}

func createUser(t *testing.T, repo userrepoport.Repository, prefix string) userrepoport.User {
	t.Helper()
	u, err := repo.Create(context.Background(), userrepoport.NewUser{
		Email:        uniqueEmail(prefix),
		PasswordHash: "$2a$04$hash",
		FirstName:    "First",
		LastName:     "Last",
		PhoneNumber:  "+15550000000",
		CreatedAt:    time.Unix(1000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	email := uniqueEmail("alice")
	now := time.Unix(1000, 0).UTC()
	a, err := repo.Create(ctx, userrepoport.NewUser{
		Email:        email,
		PasswordHash: "$2a$04$hash",
		FirstName:    "Alice",
		LastName:     "Johnson",
		PhoneNumber:  "+15551234567",
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("Create a: %v", err)
	}
	if a.ID <= 0 || a.Email != email || a.PasswordHash != "$2a$04$hash" || !a.CreatedAt.Equal(now) {
		t.Fatalf("created=%+v", a)
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != email || got.FirstName != "Alice" || got.PhoneNumber != "+15551234567" {
		t.Fatalf("GetByID=%+v", got)
	}

	// Email lookup and uniqueness are case-insensitive.
	upper := strings.ToUpper(email)
	if got, err := repo.GetByEmail(ctx, upper); err != nil || got.ID != a.ID {
		t.Fatalf("GetByEmail(upper) got=%+v err=%v", got, err)
	}
	if _, err := repo.Create(ctx, userrepoport.NewUser{
		Email:        upper,
		PasswordHash: "x",
		FirstName:    "A",
		LastName:     "B",
		PhoneNumber:  "+15550000000",
		CreatedAt:    now,
	}); !errors.Is(err, userrepoport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	b := createUser(t, repo, "bob")
	if b.ID == a.ID {
		t.Fatalf("expected distinct ids, both %d", a.ID)
	}

	if _, err := repo.GetByID(ctx, domain.UserID(1<<62)); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v", err)
	}
	if _, err := repo.GetByEmail(ctx, uniqueEmail("nobody")); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByEmail missing err=%v", err)
	}
}

func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	users, repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	owner := createUser(t, users, "owner")
	stranger := createUser(t, users, "stranger")

	base := time.Unix(10_000, 0).UTC()
	newRide := func(fare domain.Money, status domain.RideStatus, created time.Time) riderepoport.NewRide {
		return riderepoport.NewRide{
			UserID:          owner.ID,
			PickupLocation:  "Airport",
			DropoffLocation: "Hotel",
			VehicleClass:    domain.VehicleClassStandard,
			Fare:            fare,
			Status:          status,
			CreatedAt:       created,
		}
	}

	r1, err := repo.Create(ctx, newRide(2500, domain.RideStatusPending, base))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r1.ID <= 0 || r1.UserID != owner.ID || r1.Fare != 2500 || r1.Status != domain.RideStatusPending || !r1.CreatedAt.Equal(base) {
		t.Fatalf("created=%+v", r1)
	}

	// Ownership scoping.
	if _, err := repo.GetForUser(ctx, r1.ID, owner.ID); err != nil {
		t.Fatalf("GetForUser owner: %v", err)
	}
	if _, err := repo.GetForUser(ctx, r1.ID, stranger.ID); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("GetForUser stranger err=%v", err)
	}
	if _, err := repo.GetForUser(ctx, domain.RideID(1<<62), owner.ID); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("GetForUser missing err=%v", err)
	}

	// Unknown owner is rejected.
	orphan := newRide(2500, domain.RideStatusPending, base)
	orphan.UserID = domain.UserID(1 << 62)
	if _, err := repo.Create(ctx, orphan); !errors.Is(err, riderepoport.ErrOwnerNotFound) {
		t.Fatalf("Create orphan err=%v", err)
	}

	// Conditional status update.
	updated, err := repo.UpdateStatus(ctx, r1.ID, owner.ID, domain.RideStatusPending, domain.RideStatusConfirmed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.RideStatusConfirmed || updated.Fare != 2500 || !updated.CreatedAt.Equal(base) {
		t.Fatalf("updated=%+v", updated)
	}
	if _, err := repo.UpdateStatus(ctx, r1.ID, owner.ID, domain.RideStatusPending, domain.RideStatusCancelled); !errors.Is(err, riderepoport.ErrStatusConflict) {
		t.Fatalf("stale UpdateStatus err=%v", err)
	}
	if _, err := repo.UpdateStatus(ctx, r1.ID, stranger.ID, domain.RideStatusConfirmed, domain.RideStatusCancelled); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("stranger UpdateStatus err=%v", err)
	}
	if got, _ := repo.GetForUser(ctx, r1.ID, owner.ID); got.Status != domain.RideStatusConfirmed {
		t.Fatalf("status after failed updates=%s", got.Status)
	}

	// CreateMany is all-or-nothing.
	bad := []riderepoport.NewRide{newRide(100, domain.RideStatusPending, base), orphan}
	if _, err := repo.CreateMany(ctx, bad); !errors.Is(err, riderepoport.ErrOwnerNotFound) {
		t.Fatalf("CreateMany with orphan err=%v", err)
	}
	if _, total, err := repo.List(ctx, owner.ID, riderepoport.ListQuery{}); err != nil || total != 1 {
		t.Fatalf("after failed CreateMany total=%d err=%v", total, err)
	}

	batch, err := repo.CreateMany(ctx, []riderepoport.NewRide{
		newRide(4500, domain.RideStatusCompleted, base.Add(2*time.Hour)),
		newRide(3500, domain.RideStatusPending, base.Add(time.Hour)),
		newRide(3500, domain.RideStatusPending, base.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if len(batch) != 3 || !(batch[0].ID < batch[1].ID && batch[1].ID < batch[2].ID) {
		t.Fatalf("batch=%+v", batch)
	}

	ids := func(rs []riderepoport.Ride) []domain.RideID {
		out := make([]domain.RideID, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	assertIDs := func(name string, got []riderepoport.Ride, want ...domain.RideID) {
		t.Helper()
		g := ids(got)
		if len(g) != len(want) {
			t.Fatalf("%s: ids=%v want %v", name, g, want)
		}
		for i := range g {
			if g[i] != want[i] {
				t.Fatalf("%s: ids=%v want %v", name, g, want)
			}
		}
	}

	// Default ordering: created_at desc, ties by id asc.
	rs, total, err := repo.List(ctx, owner.ID, riderepoport.ListQuery{SortBy: riderepoport.SortByCreatedAt, Order: riderepoport.SortDesc})
	if err != nil || total != 4 {
		t.Fatalf("List total=%d err=%v", total, err)
	}
	assertIDs("created_at desc", rs, batch[0].ID, batch[1].ID, batch[2].ID, r1.ID)

	rs, _, _ = repo.List(ctx, owner.ID, riderepoport.ListQuery{SortBy: riderepoport.SortByFare, Order: riderepoport.SortAsc})
	assertIDs("fare asc", rs, r1.ID, batch[1].ID, batch[2].ID, batch[0].ID)

	rs, _, _ = repo.List(ctx, owner.ID, riderepoport.ListQuery{SortBy: riderepoport.SortByFare, Order: riderepoport.SortDesc})
	assertIDs("fare desc", rs, batch[0].ID, batch[1].ID, batch[2].ID, r1.ID)

	pending := domain.RideStatusPending
	rs, total, _ = repo.List(ctx, owner.ID, riderepoport.ListQuery{Status: &pending, SortBy: riderepoport.SortByFare, Order: riderepoport.SortAsc})
	if total != 2 {
		t.Fatalf("pending total=%d", total)
	}
	assertIDs("pending", rs, batch[1].ID, batch[2].ID)

	rs, total, _ = repo.List(ctx, owner.ID, riderepoport.ListQuery{SortBy: riderepoport.SortByFare, Order: riderepoport.SortAsc, Limit: 2, Offset: 2})
	if total != 4 {
		t.Fatalf("paged total=%d", total)
	}
	assertIDs("page 2", rs, batch[2].ID, batch[0].ID)

	rs, total, _ = repo.List(ctx, owner.ID, riderepoport.ListQuery{SortBy: riderepoport.SortByFare, Order: riderepoport.SortAsc, Limit: 10, Offset: 10})
	if total != 4 || len(rs) != 0 {
		t.Fatalf("past end total=%d len=%d", total, len(rs))
	}

	// Other users never see these rides.
	if rs, total, err := repo.List(ctx, stranger.ID, riderepoport.ListQuery{}); err != nil || total != 0 || len(rs) != 0 {
		t.Fatalf("stranger list len=%d total=%d err=%v", len(rs), total, err)
	}
}
