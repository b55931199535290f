package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

const cartFragment = `
fragment CartFields on Cart {
  id
  checkoutUrl
  totalQuantity
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        merchandise {
          ... on ProductVariant {
            id
            price { amount currencyCode }
            product {
              id
              handle
              title
              featuredImage { url }
            }
          }
        }
      }
    }
  }
  cost {
    subtotalAmount { amount currencyCode }
    totalAmount { amount currencyCode }
    totalTaxAmount { amount currencyCode }
  }
}`

// StorefrontClient speaks the Storefront API cart contract.
type StorefrontClient struct {
	gql *graphqlClient
}

// NewStorefrontClient validates credentials and builds the Storefront API client.
func NewStorefrontClient(ctx context.Context, cfg config.ShopifyConfig, logg *logger.Logger) (*StorefrontClient, error) {
	if strings.TrimSpace(cfg.ShopDomain) == "" {
		return nil, errShopDomainRequired
	}
	token := strings.TrimSpace(cfg.StorefrontToken)
	if token == "" {
		return nil, errStorefrontTokenRequired
	}

	gql := newGraphQLClient(cfg.StorefrontEndpoint(), map[string]string{
		"X-Shopify-Storefront-Access-Token": token,
	}, cfg, logg)

	if logg != nil {
		logg.Info(ctx, "shopify storefront client initialized")
	}
	return &StorefrontClient{gql: gql}, nil
}

// FetchCart returns the authoritative cart, or a typed not-found error.
func (c *StorefrontClient) FetchCart(ctx context.Context, cartID string) (*Cart, error) {
	query := cartFragment + `
query cartQuery($cartId: ID!) {
  cart(id: $cartId) { ...CartFields }
}`
	out := struct {
		Cart *cartPayload `json:"cart"`
	}{}
	if err := c.gql.do(ctx, "fetch_cart", query, map[string]any{"cartId": cartID}, &out); err != nil {
		return nil, err
	}
	if out.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart %s not found", cartID))
	}
	return out.Cart.toCart(), nil
}

// CreateCart creates an empty cart and returns it.
func (c *StorefrontClient) CreateCart(ctx context.Context) (*Cart, error) {
	query := cartFragment + `
mutation cartCreate {
  cartCreate {
    cart { ...CartFields }
    userErrors { field message }
  }
}`
	out := struct {
		CartCreate struct {
			Cart       *cartPayload `json:"cart"`
			UserErrors []userError  `json:"userErrors"`
		} `json:"cartCreate"`
	}{}
	if err := c.gql.do(ctx, "create_cart", query, nil, &out); err != nil {
		return nil, err
	}
	return cartResult(out.CartCreate.Cart, out.CartCreate.UserErrors, "create_cart")
}

// AddLine adds quantity of a merchandise to the cart.
func (c *StorefrontClient) AddLine(ctx context.Context, cartID, merchandiseID string, quantity int) (*Cart, error) {
	query := cartFragment + `
mutation cartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    userErrors { field message }
  }
}`
	out := struct {
		CartLinesAdd struct {
			Cart       *cartPayload `json:"cart"`
			UserErrors []userError  `json:"userErrors"`
		} `json:"cartLinesAdd"`
	}{}
	vars := map[string]any{
		"cartId": cartID,
		"lines": []map[string]any{
			{"merchandiseId": merchandiseID, "quantity": quantity},
		},
	}
	if err := c.gql.do(ctx, "add_line", query, vars, &out); err != nil {
		return nil, err
	}
	return cartResult(out.CartLinesAdd.Cart, out.CartLinesAdd.UserErrors, "add_line")
}

// UpdateLine sets the quantity of an existing cart line.
func (c *StorefrontClient) UpdateLine(ctx context.Context, cartID, lineID, merchandiseID string, quantity int) (*Cart, error) {
	query := cartFragment + `
mutation cartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartFields }
    userErrors { field message }
  }
}`
	out := struct {
		CartLinesUpdate struct {
			Cart       *cartPayload `json:"cart"`
			UserErrors []userError  `json:"userErrors"`
		} `json:"cartLinesUpdate"`
	}{}
	vars := map[string]any{
		"cartId": cartID,
		"lines": []map[string]any{
			{"id": lineID, "merchandiseId": merchandiseID, "quantity": quantity},
		},
	}
	if err := c.gql.do(ctx, "update_line", query, vars, &out); err != nil {
		return nil, err
	}
	return cartResult(out.CartLinesUpdate.Cart, out.CartLinesUpdate.UserErrors, "update_line")
}

// RemoveLines removes the identified lines from the cart.
func (c *StorefrontClient) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*Cart, error) {
	query := cartFragment + `
mutation cartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartFields }
    userErrors { field message }
  }
}`
	out := struct {
		CartLinesRemove struct {
			Cart       *cartPayload `json:"cart"`
			UserErrors []userError  `json:"userErrors"`
		} `json:"cartLinesRemove"`
	}{}
	vars := map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	}
	if err := c.gql.do(ctx, "remove_lines", query, vars, &out); err != nil {
		return nil, err
	}
	return cartResult(out.CartLinesRemove.Cart, out.CartLinesRemove.UserErrors, "remove_lines")
}

func cartResult(payload *cartPayload, userErrors []userError, op string) (*Cart, error) {
	if len(userErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteRejected, fmt.Sprintf("shopify %s: %s", op, joinUserErrors(userErrors)))
	}
	if payload == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("shopify %s returned no cart", op))
	}
	return payload.toCart(), nil
}

func joinUserErrors(errs []userError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if trimmed := strings.TrimSpace(e.Message); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "request rejected"
	}
	return strings.Join(parts, "; ")
}
