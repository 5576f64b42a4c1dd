//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const defaultTTL = 15 * time.Minute

type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret).GenerateToken(userID, role, defaultTTL)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret).GenerateToken(userID, role, -time.Minute)
	require.NoError(t, err)
	return token
}

// CreateForeignToken signs with a different secret, so validation must reject it.
func (h *JWTHelper) CreateForeignToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret+"-other").GenerateToken(userID, role, defaultTTL)
	require.NoError(t, err)
	return token
}
