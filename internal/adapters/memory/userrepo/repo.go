package userrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	nextID    domain.UserID
	byID      map[domain.UserID]userrepo.User
	idByEmail map[string]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		byID:      make(map[domain.UserID]userrepo.User),
		idByEmail: make(map[string]domain.UserID),
	}
}

func (r *Repo) Create(ctx context.Context, nu userrepo.NewUser) (userrepo.User, error) {
	_ = ctx
	key := emailKey(nu.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.idByEmail[key]; ok {
		return userrepo.User{}, userrepo.ErrEmailTaken
	}

	r.nextID++
	u := userrepo.User{
		ID:           r.nextID,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PhoneNumber:  nu.PhoneNumber,
		CreatedAt:    nu.CreatedAt,
	}
	r.byID[u.ID] = u
	r.idByEmail[key] = u.ID
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (userrepo.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByEmail[emailKey(email)]
	if !ok {
		return userrepo.User{}, userrepo.ErrNotFound
	}
	return r.byID[id], nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
