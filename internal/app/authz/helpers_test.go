package authz_test

import (
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/platform/config"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{Secret: []byte("gate-test-secret-0123456789"), TTL: time.Hour}
}
