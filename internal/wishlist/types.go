package wishlist

import (
	"time"
)

// Item is the wishlist entry shape returned to clients.
type Item struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Title        string    `json:"title"`
	Price        string    `json:"price,omitempty"`
	DefaultImage string    `json:"default_image,omitempty"`
	HoverImage   *string   `json:"hover_image,omitempty"`
	VariantID    *string   `json:"variant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is one cursor-bounded slice of a wishlist. NextCursor is empty on the
// last page.
type Page struct {
	Items      []Item `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ItemInput is the payload accepted by Toggle. The ID may arrive in any
// Shopify encoding; it is normalized before use.
type ItemInput struct {
	ID           string
	Handle       string
	Title        string
	Price        string
	DefaultImage string
	HoverImage   *string
	VariantID    *string
}
