package shopify

import (
	"github.com/shopspring/decimal"
)

// Cart is the authoritative cart shape returned by the Storefront API.
type Cart struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkout_url"`
	TotalQuantity int    `json:"total_quantity"`
	Lines         []Line `json:"lines"`
	Cost          Cost   `json:"cost"`
}

// Line is one cart row keyed by merchandise (variant) ID.
type Line struct {
	ID            string          `json:"id,omitempty"`
	MerchandiseID string          `json:"merchandise_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CurrencyCode  string          `json:"currency_code"`
	Product       ProductSnapshot `json:"product"`
}

// ProductSnapshot is the display data carried alongside a line.
type ProductSnapshot struct {
	ID       string `json:"id"`
	Handle   string `json:"handle"`
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}

// Cost is the cart-level money summary.
type Cost struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
	Tax      decimal.Decimal `json:"tax"`
	Currency string          `json:"currency"`
}

// Customer is the identity shape returned by the Customer Account API.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// TokenResponse is the OAuth token exchange result.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	IDToken      string `json:"id_token,omitempty"`
}

// Wire shapes for the Storefront API cart payloads.

type moneyPayload struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

type imagePayload struct {
	URL string `json:"url"`
}

type productPayload struct {
	ID            string        `json:"id"`
	Handle        string        `json:"handle"`
	Title         string        `json:"title"`
	FeaturedImage *imagePayload `json:"featuredImage"`
}

type merchandisePayload struct {
	ID      string         `json:"id"`
	Price   moneyPayload   `json:"price"`
	Product productPayload `json:"product"`
}

type linePayload struct {
	ID          string             `json:"id"`
	Quantity    int                `json:"quantity"`
	Merchandise merchandisePayload `json:"merchandise"`
}

type linesConnection struct {
	Edges []struct {
		Node linePayload `json:"node"`
	} `json:"edges"`
}

type costPayload struct {
	SubtotalAmount moneyPayload  `json:"subtotalAmount"`
	TotalAmount    moneyPayload  `json:"totalAmount"`
	TotalTaxAmount *moneyPayload `json:"totalTaxAmount"`
}

type cartPayload struct {
	ID            string          `json:"id"`
	CheckoutURL   string          `json:"checkoutUrl"`
	TotalQuantity int             `json:"totalQuantity"`
	Lines         linesConnection `json:"lines"`
	Cost          costPayload     `json:"cost"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (p *cartPayload) toCart() *Cart {
	if p == nil {
		return nil
	}
	cart := &Cart{
		ID:            p.ID,
		CheckoutURL:   p.CheckoutURL,
		TotalQuantity: p.TotalQuantity,
		Lines:         make([]Line, 0, len(p.Lines.Edges)),
		Cost: Cost{
			Subtotal: p.Cost.SubtotalAmount.Amount,
			Total:    p.Cost.TotalAmount.Amount,
			Currency: p.Cost.TotalAmount.CurrencyCode,
		},
	}
	if p.Cost.TotalTaxAmount != nil {
		cart.Cost.Tax = p.Cost.TotalTaxAmount.Amount
	}
	for _, edge := range p.Lines.Edges {
		node := edge.Node
		line := Line{
			ID:            node.ID,
			MerchandiseID: node.Merchandise.ID,
			Quantity:      node.Quantity,
			UnitPrice:     node.Merchandise.Price.Amount,
			CurrencyCode:  node.Merchandise.Price.CurrencyCode,
			Product: ProductSnapshot{
				ID:     node.Merchandise.Product.ID,
				Handle: node.Merchandise.Product.Handle,
				Title:  node.Merchandise.Product.Title,
			},
		}
		if node.Merchandise.Product.FeaturedImage != nil {
			line.Product.ImageURL = node.Merchandise.Product.FeaturedImage.URL
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart
}
