// Package session keeps the refresh side of authentication in redis. Every
// access token jti maps to one session record; logout or rotation deletes it,
// which also invalidates the access token through HasSession.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosbiromania/storefront-backend/pkg/config"
	"github.com/gosbiromania/storefront-backend/pkg/enums"
	"github.com/gosbiromania/storefront-backend/pkg/redis"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the redis surface the manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Session is the identity a refresh token resolves to. Token holds the
// plaintext refresh token only on the value handed back to callers.
type Session struct {
	CustomerID uuid.UUID
	Role       enums.CustomerRole
	Token      string
}

// record is what lands in redis; the refresh token is kept as a sha256.
type record struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Role       enums.CustomerRole `json:"role"`
	TokenHash  string             `json:"token_hash"`
	IssuedAt   time.Time          `json:"issued_at"`
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager validates that refresh sessions outlive access tokens.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, fmt.Errorf("refresh token ttl must be positive")
	case ttl <= accessTTL:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// NewAccessID produces the identifier used as JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns its refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, customerID uuid.UUID, role enums.CustomerRole) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.save(ctx, accessID, customerID, role, token); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate exchanges the refresh token bound to oldAccessID for a new session.
// The old record is consumed atomically so a token can be redeemed once even
// under concurrent refreshes.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, Session, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", Session{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)

	current, err := m.load(ctx, key, m.store.Get)
	if err != nil {
		return "", Session{}, err
	}
	if !tokenMatches(current.TokenHash, provided) {
		return "", Session{}, ErrInvalidRefreshToken
	}
	if _, err := m.load(ctx, key, m.store.GetDel); err != nil {
		return "", Session{}, err
	}

	token, err := newRefreshToken()
	if err != nil {
		return "", Session{}, err
	}
	accessID := NewAccessID()
	if err := m.save(ctx, accessID, current.CustomerID, current.Role, token); err != nil {
		return "", Session{}, err
	}
	return accessID, Session{CustomerID: current.CustomerID, Role: current.Role, Token: token}, nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redis.ErrNil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (m *Manager) save(ctx context.Context, accessID string, customerID uuid.UUID, role enums.CustomerRole, token string) error {
	payload, err := json.Marshal(record{
		CustomerID: customerID,
		Role:       role,
		TokenHash:  hashToken(token),
		IssuedAt:   m.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(payload), m.ttl)
}

func (m *Manager) load(ctx context.Context, key string, read func(context.Context, string) (string, error)) (record, error) {
	raw, err := read(ctx, key)
	if errors.Is(err, redis.ErrNil) {
		return record{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, ErrInvalidRefreshToken
	}
	return rec, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenMatches(storedHash, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashToken(provided))) == 1
}
