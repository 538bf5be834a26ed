package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/authz"
	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/idempotency"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type idemScope struct {
	active bool
	meta   idempotency.Fingerprint
	resp   idempotency.Fingerprint
}

// beginIdempotent handles Idempotency-Key for a POST route:
//   - same user+key+route+bodyHash replays the stored response
//   - same user+key+route with a different bodyHash is rejected with 409
//
// Keys are bound to a body only once a request succeeds, so a rejected attempt
// can be corrected and retried under the same key. It returns done=true when a
// response was already written.
func (s *Server) beginIdempotent(w http.ResponseWriter, r *http.Request, p authz.Principal, route, bodyHash string) (idemScope, bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if s.Idem == nil || key == "" {
		return idemScope{}, false
	}
	ctx := r.Context()

	metaFP := idempotency.Fingerprint{
		Key:    idempotency.Key(key),
		UserID: p.UserID,
		Method: r.Method,
		Route:  route,
	}
	meta, ok, err := s.Idem.Get(ctx, metaFP)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return idemScope{}, true
	}
	if ok && string(meta.Body) != bodyHash {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return idemScope{}, true
	}

	respFP := metaFP
	respFP.BodyHash = bodyHash
	rec, ok, err := s.Idem.Get(ctx, respFP)
	if err != nil {
		writeAppError(w, r, s.Log, err)
		return idemScope{}, true
	}
	if ok && rec.StatusCode != 0 {
		s.Log.InfoContext(ctx, "idempotent replay", "route", route, "user_id", p.UserID)
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return idemScope{}, true
	}
	return idemScope{active: true, meta: metaFP, resp: respFP}, false
}

// finishIdempotent binds the key to the body and stores a successful response
// for replay. Store failures only cost the replay, so they are logged and dropped.
func (s *Server) finishIdempotent(r *http.Request, sc idemScope, status int, body []byte) {
	if !sc.active || body == nil {
		return
	}
	ctx := r.Context()
	now := s.now()
	err := s.Idem.Put(ctx, sc.meta, idempotency.Record{
		ContentType: "text/plain",
		Body:        []byte(sc.resp.BodyHash),
		CreatedAt:   now,
	})
	if err == nil {
		err = s.Idem.Put(ctx, sc.resp, idempotency.Record{
			StatusCode:  status,
			ContentType: "application/json",
			Body:        body,
			CreatedAt:   now,
		})
	}
	if err != nil {
		s.Log.WarnContext(ctx, "store idempotent response failed", "route", sc.resp.Route, "err", err)
	}
}

func (s *Server) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now().UTC()
}

func hashCreateRideBody(b createRideRequest) string {
	canon := b
	canon.PickupLocation = strings.TrimSpace(canon.PickupLocation)
	canon.DropoffLocation = strings.TrimSpace(canon.DropoffLocation)
	if c, ok := domain.ParseVehicleClass(canon.CarType); ok {
		canon.CarType = string(c)
	}
	raw, _ := json.Marshal(canon)
	return hashBytes(raw)
}

func hashEmptyBody() string {
	return hashBytes(nil)
}

func hashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
