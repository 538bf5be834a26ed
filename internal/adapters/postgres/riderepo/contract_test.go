package riderepo

import (
	"testing"

	"github.com/Overland-East-Bay/ride-booking-api/internal/adapters/contracttest"
	"github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/Overland-East-Bay/ride-booking-api/internal/adapters/postgres/userrepo"
	riderepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/riderepo"
	userrepoport "github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

func TestContract_PostgresRideRepo(t *testing.T) {
	pool := testutil.OpenMigratedPool(t)

	contracttest.RunRideRepo(t, func(t *testing.T) (userrepoport.Repository, riderepoport.Repository, func()) {
		t.Helper()
		return pguserrepo.NewRepo(pool), NewRepo(pool), nil
	})
}
