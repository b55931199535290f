package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/pkg/auth/session"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
	redislib "github.com/redis/go-redis/v9"
)

// Profile is the identity surface exposed to clients.
type Profile struct {
	CustomerID string `json:"customer_id"`
	Email      string `json:"email,omitempty"`
}

type oauthClient interface {
	AuthorizeURL(state, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*shopify.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*shopify.TokenResponse, error)
	FetchCustomer(ctx context.Context, accessToken string) (*shopify.Customer, error)
}

type verifierStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
}

type verifierKeyer interface {
	PKCEKey(state string) string
}

type sessionManager interface {
	Upgrade(ctx context.Context, oldAccessID string, rec session.Record) (string, error)
	Get(ctx context.Context, accessID string) (*session.Record, error)
	Update(ctx context.Context, accessID string, rec session.Record) error
	Revoke(ctx context.Context, accessID string) error
}

// Service runs the OAuth2 + PKCE authorization-code flow against the
// identity provider and materializes the result as a server-side session.
type Service interface {
	BeginLogin(ctx context.Context) (authorizeURL, state string, err error)
	CompleteLogin(ctx context.Context, input CompleteLoginInput) (accessID string, rec *session.Record, err error)
	Profile(ctx context.Context, accessID string) (*Profile, error)
	Logout(ctx context.Context, accessID string) error
}

// CompleteLoginInput carries the callback parameters plus the caller's
// current (guest) session identity.
type CompleteLoginInput struct {
	State        string
	Code         string
	PriorAccess  string
	SessionID    string
}

// ServiceParams groups the service dependencies.
type ServiceParams struct {
	OAuth     oauthClient
	Verifiers verifierStore
	Keyer     verifierKeyer
	Sessions  sessionManager
	Logger    *logger.Logger
	Config    config.SessionConfig
}

type service struct {
	oauth     oauthClient
	verifiers verifierStore
	keyer     verifierKeyer
	sessions  sessionManager
	logg      *logger.Logger
	cfg       config.SessionConfig
}

// NewService builds the customer identity service.
func NewService(params ServiceParams) (Service, error) {
	if params.OAuth == nil {
		return nil, fmt.Errorf("oauth client is required")
	}
	if params.Verifiers == nil || params.Keyer == nil {
		return nil, fmt.Errorf("verifier store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Config.PKCEStateTTL <= 0 {
		return nil, fmt.Errorf("pkce state ttl must be positive")
	}
	return &service{
		oauth:     params.OAuth,
		verifiers: params.Verifiers,
		keyer:     params.Keyer,
		sessions:  params.Sessions,
		logg:      params.Logger,
		cfg:       params.Config,
	}, nil
}

// BeginLogin parks a fresh PKCE verifier under the state key and returns the
// authorization URL the client should redirect to.
func (s *service) BeginLogin(ctx context.Context) (string, string, error) {
	verifier, err := newVerifier()
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "starting login")
	}
	state := session.NewAccessID()
	if err := s.verifiers.Set(ctx, s.keyer.PKCEKey(state), verifier, s.cfg.PKCEStateTTL); err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parking pkce verifier")
	}
	return s.oauth.AuthorizeURL(state, challengeS256(verifier)), state, nil
}

// CompleteLogin validates the state, exchanges the code, and upgrades the
// caller's guest session to a customer-bound one. The storefront session ID
// is preserved so cart and wishlist state survive the login.
func (s *service) CompleteLogin(ctx context.Context, input CompleteLoginInput) (string, *session.Record, error) {
	if strings.TrimSpace(input.State) == "" || strings.TrimSpace(input.Code) == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "state and code are required")
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	// One-shot read: a replayed state finds nothing.
	verifier, err := s.verifiers.GetDel(ctx, s.keyer.PKCEKey(input.State))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login state is unknown or expired")
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading pkce verifier")
	}

	token, err := s.oauth.ExchangeCode(ctx, input.Code, verifier)
	if err != nil {
		return "", nil, err
	}

	cust, err := s.oauth.FetchCustomer(ctx, token.AccessToken)
	if err != nil {
		return "", nil, err
	}

	rec := session.Record{
		SessionID:     input.SessionID,
		CustomerID:    &cust.ID,
		Guest:         false,
		CustomerToken: token.AccessToken,
		RefreshToken:  token.RefreshToken,
	}
	if cust.Email != "" {
		email := cust.Email
		rec.Email = &email
	}
	if token.ExpiresIn > 0 {
		expires := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		rec.TokenExpires = &expires
	}

	accessID, err := s.sessions.Upgrade(ctx, input.PriorAccess, rec)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upgrading session")
	}

	s.logg.Info(s.logg.WithCustomerID(ctx, cust.ID), "customer login completed")
	return accessID, &rec, nil
}

// Profile returns the authenticated customer's identity, or a typed error
// when the session is missing or anonymous.
func (s *service) Profile(ctx context.Context, accessID string) (*Profile, error) {
	rec, err := s.sessions.Get(ctx, accessID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading session")
	}
	if rec.Guest || rec.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer record for this session")
	}
	if err := s.refreshCustomerToken(ctx, accessID, rec); err != nil {
		// The session itself stays valid; only the stored Shopify token is stale.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "customer token refresh failed")
	}
	profile := &Profile{CustomerID: *rec.CustomerID}
	if rec.Email != nil {
		profile.Email = *rec.Email
	}
	return profile, nil
}

// refreshCustomerToken renews the stored Customer Account token once it has
// expired so outbound Shopify calls keep a usable credential.
func (s *service) refreshCustomerToken(ctx context.Context, accessID string, rec *session.Record) error {
	if rec.RefreshToken == "" || rec.TokenExpires == nil || time.Now().Before(*rec.TokenExpires) {
		return nil
	}
	token, err := s.oauth.RefreshToken(ctx, rec.RefreshToken)
	if err != nil {
		return err
	}
	rec.CustomerToken = token.AccessToken
	if token.RefreshToken != "" {
		rec.RefreshToken = token.RefreshToken
	}
	if token.ExpiresIn > 0 {
		expires := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		rec.TokenExpires = &expires
	}
	return s.sessions.Update(ctx, accessID, *rec)
}

// Logout revokes the session record.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}
