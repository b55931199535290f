package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	redisclient "github.com/aurelle-jewelry/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("session not found")

// Record is the server-side session state referenced by the JWT jti.
type Record struct {
	SessionID     string     `json:"session_id"`
	CustomerID    *string    `json:"customer_id,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Guest         bool       `json:"guest"`
	CustomerToken string     `json:"customer_token,omitempty"`
	RefreshToken  string     `json:"refresh_token,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(accessID string) string
}

// Manager handles session record creation, lookup, and revocation.
type Manager struct {
	store       sessionStore
	keyer       sessionKeyer
	guestTTL    time.Duration
	customerTTL time.Duration
}

// SessionChecker exposes the read-only surface needed by middleware.
type SessionChecker interface {
	Get(ctx context.Context, accessID string) (*Record, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.GuestTTL <= 0 || cfg.CustomerTTL <= 0 {
		return nil, fmt.Errorf("session ttls must be positive")
	}
	accessTTL := cfg.AccessTokenTTL()
	if cfg.GuestTTL <= accessTTL || cfg.CustomerTTL <= accessTTL {
		return nil, fmt.Errorf("session ttls must exceed access token ttl (%s)", accessTTL)
	}

	return &Manager{
		store:       client,
		keyer:       client,
		guestTTL:    cfg.GuestTTL,
		customerTTL: cfg.CustomerTTL,
	}, nil
}

// Create stores a session record and returns the access ID that the minted JWT carries as jti.
func (m *Manager) Create(ctx context.Context, rec Record) (string, error) {
	if strings.TrimSpace(rec.SessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	if !rec.Guest && (rec.CustomerID == nil || strings.TrimSpace(*rec.CustomerID) == "") {
		return "", fmt.Errorf("customer id is required for non-guest sessions")
	}

	accessID := NewAccessID()
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding session record: %w", err)
	}
	if err := m.store.Set(ctx, m.keyer.SessionKey(accessID), string(payload), m.ttlFor(rec)); err != nil {
		return "", err
	}
	return accessID, nil
}

// Get returns the session record for the access ID, or ErrNoSession.
func (m *Manager) Get(ctx context.Context, accessID string) (*Record, error) {
	if strings.TrimSpace(accessID) == "" {
		return nil, ErrNoSession
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	rec := &Record{}
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, fmt.Errorf("decoding session record: %w", err)
	}
	return rec, nil
}

// Upgrade replaces a guest session with a customer-bound one, keeping the same
// storefront session ID so cart and wishlist state survive the login.
func (m *Manager) Upgrade(ctx context.Context, oldAccessID string, rec Record) (string, error) {
	if rec.Guest {
		return "", fmt.Errorf("upgrade target must be a customer session")
	}
	newAccessID, err := m.Create(ctx, rec)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(oldAccessID) != "" {
		if err := m.store.Del(ctx, m.keyer.SessionKey(oldAccessID)); err != nil {
			return "", err
		}
	}
	return newAccessID, nil
}

// Update rewrites the record stored under an existing access ID, keeping the
// same key so issued JWTs stay valid.
func (m *Manager) Update(ctx context.Context, accessID string, rec Record) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}
	return m.store.Set(ctx, m.keyer.SessionKey(accessID), string(payload), m.ttlFor(rec))
}

// Revoke deletes the session record tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(accessID))
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

// NewSessionID produces the storefront session identifier that scopes cart state.
func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) ttlFor(rec Record) time.Duration {
	if rec.Guest {
		return m.guestTTL
	}
	return m.customerTTL
}
