package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

var (
	errCustomerClientIDRequired = errors.New("shopify customer client id is required")
	errCustomerAuthURLRequired  = errors.New("shopify customer auth base url is required")
	errCustomerAPIURLRequired   = errors.New("shopify customer api base url is required")
	errRedirectURLRequired      = errors.New("shopify customer redirect url is required")
)

// CustomerClient speaks the Customer Account API: OAuth code exchange and profile queries.
type CustomerClient struct {
	clientID    string
	authBaseURL string
	redirectURL string
	gqlEndpoint string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewCustomerClient validates the OAuth configuration and builds the client.
func NewCustomerClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*CustomerClient, error) {
	clientID := strings.TrimSpace(cfg.CustomerClientID)
	if clientID == "" {
		return nil, errCustomerClientIDRequired
	}
	authBase := strings.TrimRight(strings.TrimSpace(cfg.CustomerAuthBaseURL), "/")
	if authBase == "" {
		return nil, errCustomerAuthURLRequired
	}
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.CustomerAPIBaseURL), "/")
	if apiBase == "" {
		return nil, errCustomerAPIURLRequired
	}
	redirect := strings.TrimSpace(cfg.CustomerRedirectURL)
	if redirect == "" {
		return nil, errRedirectURLRequired
	}

	if logg != nil {
		logg.Info(ctx, "shopify customer client initialized")
	}
	return &CustomerClient{
		clientID:    clientID,
		authBaseURL: authBase,
		redirectURL: redirect,
		gqlEndpoint: apiBase + "/graphql",
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		logger:      logg,
	}, nil
}

// AuthorizeURL builds the authorization-code URL carrying the PKCE challenge.
func (c *CustomerClient) AuthorizeURL(state, challenge string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", "openid email customer-account-api:full")
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	return c.authBaseURL + "/oauth/authorize?" + q.Encode()
}

// ExchangeCode trades the authorization code plus PKCE verifier for tokens.
func (c *CustomerClient) ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("redirect_uri", c.redirectURL)
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	return c.requestToken(ctx, form)
}

// RefreshToken trades a refresh token for a fresh access token.
func (c *CustomerClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token is required")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("refresh_token", refreshToken)
	return c.requestToken(ctx, form)
}

func (c *CustomerClient) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shopify token request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading token response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("shopify token endpoint returned status %d", resp.StatusCode))
	}

	token := &TokenResponse{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding token response")
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "shopify token endpoint returned no access token")
	}
	return token, nil
}

// FetchCustomer returns the authenticated customer's identity, or a typed not-found error.
func (c *CustomerClient) FetchCustomer(ctx context.Context, accessToken string) (*Customer, error) {
	query := `
query customerQuery {
  customer {
    id
    emailAddress { emailAddress }
    firstName
    lastName
  }
}`
	gql := &graphqlClient{
		endpoint: c.gqlEndpoint,
		headers: map[string]string{
			"Authorization": "Bearer " + accessToken,
		},
		httpClient: c.httpClient,
		logger:     c.logger,
	}

	out := struct {
		Customer *struct {
			ID           string `json:"id"`
			EmailAddress *struct {
				EmailAddress string `json:"emailAddress"`
			} `json:"emailAddress"`
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"customer"`
	}{}
	if err := gql.do(ctx, "fetch_customer", query, nil, &out); err != nil {
		return nil, err
	}
	if out.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer record for token")
	}

	customer := &Customer{
		ID:        NormalizeProductID(out.Customer.ID),
		FirstName: out.Customer.FirstName,
		LastName:  out.Customer.LastName,
	}
	if out.Customer.EmailAddress != nil {
		customer.Email = out.Customer.EmailAddress.EmailAddress
	}
	return customer, nil
}
