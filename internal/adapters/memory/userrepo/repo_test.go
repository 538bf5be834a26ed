package userrepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

func TestRepo_AssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	for i := 1; i <= 3; i++ {
		u, err := r.Create(context.Background(), userrepo.NewUser{Email: fmt.Sprintf("u%d@example.com", i), CreatedAt: time.Unix(1, 0)})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if int(u.ID) != i {
			t.Fatalf("id=%d want %d", u.ID, i)
		}
	}
}

func TestRepo_ConcurrentDuplicateEmail_OneWins(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	const n = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		taken int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(context.Background(), userrepo.NewUser{Email: "same@example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, userrepo.ErrEmailTaken):
				taken++
			default:
				t.Errorf("unexpected err=%v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || taken != n-1 {
		t.Fatalf("ok=%d taken=%d", ok, taken)
	}
}
