package rideevents

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
)

// Recorder keeps published events in memory. Tests inspect it; it can also be
// told to fail to exercise publish error handling.
type Recorder struct {
	mu     sync.Mutex
	events []rideevents.Event
	err    error
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Publish(ctx context.Context, e rideevents.Event) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// FailWith makes subsequent Publish calls return err. A nil err restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Events() []rideevents.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rideevents.Event(nil), r.events...)
}
