package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aurelle-jewelry/storefront-backend/api/middleware"
	customersvc "github.com/aurelle-jewelry/storefront-backend/internal/customer"
	"github.com/aurelle-jewelry/storefront-backend/pkg/auth/session"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
)

type stubCustomerService struct {
	authorizeURL string
	state        string
	accessID     string
	record       *session.Record
	profile      *customersvc.Profile
	err          error

	lastInput    customersvc.CompleteLoginInput
	loggedOut    []string
	profileCalls []string
}

func (s *stubCustomerService) BeginLogin(ctx context.Context) (string, string, error) {
	return s.authorizeURL, s.state, s.err
}

func (s *stubCustomerService) CompleteLogin(ctx context.Context, input customersvc.CompleteLoginInput) (string, *session.Record, error) {
	s.lastInput = input
	if s.err != nil {
		return "", nil, s.err
	}
	return s.accessID, s.record, nil
}

func (s *stubCustomerService) Profile(ctx context.Context, accessID string) (*customersvc.Profile, error) {
	s.profileCalls = append(s.profileCalls, accessID)
	return s.profile, s.err
}

func (s *stubCustomerService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = append(s.loggedOut, accessID)
	return s.err
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		JWTSecret:         "test-secret",
		JWTIssuer:         "aurelle-test",
		ExpirationMinutes: 15,
		CookieName:        "aurelle_session",
	}
}

func TestLoginRedirectsToAuthorizeURL(t *testing.T) {
	svc := &stubCustomerService{authorizeURL: "https://shopify.example/oauth/authorize?state=s1", state: "s1"}
	handler := Login(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))

	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != svc.authorizeURL {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestCallbackUpgradesSessionAndSetsCookie(t *testing.T) {
	customerID := "8812"
	svc := &stubCustomerService{
		accessID: "access-new",
		record: &session.Record{
			SessionID:  "sess-1",
			CustomerID: &customerID,
		},
	}
	handler := Callback(svc, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?state=s1&code=c1", nil)
	req = req.WithContext(middleware.WithSessionIdentity(req.Context(), "access-guest", "sess-1", ""))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.PriorAccess != "access-guest" || svc.lastInput.SessionID != "sess-1" {
		t.Fatalf("guest identity not threaded: %+v", svc.lastInput)
	}

	cookies := resp.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == "aurelle_session" && c.Value != "" && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatal("session cookie not refreshed")
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["customer_id"] != "8812" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestCallbackRequiresStateAndCode(t *testing.T) {
	handler := Callback(&stubCustomerService{}, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?code=c1", nil)
	req = req.WithContext(middleware.WithSessionIdentity(req.Context(), "access-guest", "sess-1", ""))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCallbackUnknownState(t *testing.T) {
	svc := &stubCustomerService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "login state is unknown or expired")}
	handler := Callback(svc, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?state=s1&code=c1", nil)
	req = req.WithContext(middleware.WithSessionIdentity(req.Context(), "access-guest", "sess-1", ""))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	svc := &stubCustomerService{}
	handler := Logout(svc, testSessionConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithSessionIdentity(req.Context(), "access-1", "sess-1", "8812"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "access-1" {
		t.Fatalf("logout not invoked: %v", svc.loggedOut)
	}

	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == "aurelle_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("session cookie not cleared")
	}
}

func TestMeReturnsProfile(t *testing.T) {
	svc := &stubCustomerService{profile: &customersvc.Profile{CustomerID: "8812", Email: "mina@example.com"}}
	handler := Me(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customer/me", nil)
	req = req.WithContext(middleware.WithSessionIdentity(req.Context(), "access-1", "sess-1", "8812"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.profileCalls) != 1 || svc.profileCalls[0] != "access-1" {
		t.Fatalf("profile not looked up by access id: %v", svc.profileCalls)
	}
}

func TestMeRequiresSession(t *testing.T) {
	handler := Me(&stubCustomerService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/customer/me", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
