package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem is one saved product reference for an owner (customer or
// guest session). ProductID holds the normalized numeric identifier.
type WishlistItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKey     string    `gorm:"column:owner_key;not null;index:wishlist_items_owner_idx;uniqueIndex:wishlist_items_owner_product_key"`
	ProductID    string    `gorm:"column:product_id;not null;uniqueIndex:wishlist_items_owner_product_key"`
	Handle       string    `gorm:"column:handle;not null"`
	Title        string    `gorm:"column:title;not null"`
	Price        string    `gorm:"column:price"`
	DefaultImage string    `gorm:"column:default_image"`
	HoverImage   *string   `gorm:"column:hover_image"`
	VariantID    *string   `gorm:"column:variant_id"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
