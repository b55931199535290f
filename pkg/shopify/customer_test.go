package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
)

func newTestCustomerClient(t *testing.T, handler http.HandlerFunc) *CustomerClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &CustomerClient{
		clientID:    "client-1",
		authBaseURL: server.URL,
		redirectURL: "https://aurelle.jewelry/auth/callback",
		gqlEndpoint: server.URL + "/graphql",
		httpClient:  server.Client(),
	}
}

func TestAuthorizeURLCarriesPKCEChallenge(t *testing.T) {
	client := &CustomerClient{
		clientID:    "client-1",
		authBaseURL: "https://shopify.com/auth",
		redirectURL: "https://aurelle.jewelry/auth/callback",
	}
	raw := client.AuthorizeURL("state-1", "challenge-1")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-1" || q.Get("state") != "state-1" {
		t.Fatalf("unexpected query %v", q)
	}
	if q.Get("code_challenge") != "challenge-1" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("pkce params missing %v", q)
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("expected authorization code flow, got %q", q.Get("response_type"))
	}
}

func TestExchangeCodeSendsVerifier(t *testing.T) {
	var gotForm url.Values
	client := newTestCustomerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/oauth/token") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "at-1", "refresh_token": "rt-1", "expires_in": 3600}`))
	})

	token, err := client.ExchangeCode(context.Background(), "code-1", "verifier-1")
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if token.AccessToken != "at-1" || token.ExpiresIn != 3600 {
		t.Fatalf("unexpected token %+v", token)
	}
	if gotForm.Get("code") != "code-1" || gotForm.Get("code_verifier") != "verifier-1" {
		t.Fatalf("missing exchange params %v", gotForm)
	}
	if gotForm.Get("grant_type") != "authorization_code" {
		t.Fatalf("unexpected grant type %q", gotForm.Get("grant_type"))
	}
}

func TestRefreshTokenSendsGrant(t *testing.T) {
	var gotForm url.Values
	client := newTestCustomerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/oauth/token") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "at-2", "refresh_token": "rt-2", "expires_in": 3600}`))
	})

	token, err := client.RefreshToken(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if token.AccessToken != "at-2" || token.RefreshToken != "rt-2" {
		t.Fatalf("unexpected token %+v", token)
	}
	if gotForm.Get("grant_type") != "refresh_token" || gotForm.Get("refresh_token") != "rt-1" {
		t.Fatalf("missing refresh params %v", gotForm)
	}

	_, err = client.RefreshToken(context.Background(), "  ")
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for empty refresh token, got %v", err)
	}
}

func TestExchangeCodeRejectionMapsToUnauthorized(t *testing.T) {
	client := newTestCustomerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.ExchangeCode(context.Background(), "bad-code", "verifier-1")
	if err == nil {
		t.Fatal("expected error")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestFetchCustomerMapsIdentity(t *testing.T) {
	var gotAuth string
	client := newTestCustomerClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"customer": {
			"id": "gid://shopify/Customer/8812",
			"emailAddress": {"emailAddress": "mina@example.com"},
			"firstName": "Mina",
			"lastName": "Okafor"
		}}}`))
	})

	customer, err := client.FetchCustomer(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("fetch customer: %v", err)
	}
	if gotAuth != "Bearer at-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if customer.ID != "8812" {
		t.Fatalf("customer id not normalized: %q", customer.ID)
	}
	if customer.Email != "mina@example.com" {
		t.Fatalf("email not mapped: %q", customer.Email)
	}
}

func TestFetchCustomerMissingRecord(t *testing.T) {
	client := newTestCustomerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"customer": null}}`))
	})

	_, err := client.FetchCustomer(context.Background(), "at-1")
	if err == nil {
		t.Fatal("expected not found error")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestNormalizeProductID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gid://shopify/Product/123456", "123456"},
		{"gid://shopify/ProductVariant/987?selected=true", "987"},
		{"123456", "123456"},
		{"  gid://shopify/Product/55/ ", "55"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeProductID(tt.in); got != tt.want {
			t.Fatalf("NormalizeProductID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
