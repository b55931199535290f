package wishlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/pkg/db/models"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert adds a wishlist entry and ignores duplicates on (owner, product).
func (r *Repository) Insert(ctx context.Context, item models.WishlistItem) error {
	if strings.TrimSpace(item.OwnerKey) == "" || strings.TrimSpace(item.ProductID) == "" {
		return gorm.ErrInvalidValue
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, owner_key, product_id, handle, title, price, default_image, hover_image, variant_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_key, product_id) DO NOTHING`,
			item.ID, item.OwnerKey, item.ProductID, item.Handle, item.Title, item.Price, item.DefaultImage, item.HoverImage, item.VariantID, item.CreatedAt).
		Error
}

// FindMatch returns the entry whose normalized product ID or handle matches,
// or nil when none exists.
func (r *Repository) FindMatch(ctx context.Context, ownerKey, productID, handle string) (*models.WishlistItem, error) {
	query := r.db.WithContext(ctx).Where("owner_key = ?", ownerKey)
	switch {
	case productID != "" && handle != "":
		query = query.Where("product_id = ? OR handle = ?", productID, handle)
	case productID != "":
		query = query.Where("product_id = ?", productID)
	case handle != "":
		query = query.Where("handle = ?", handle)
	default:
		return nil, nil
	}

	item := &models.WishlistItem{}
	if err := query.First(item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

// Delete removes entries matching the normalized product ID or handle.
func (r *Repository) Delete(ctx context.Context, ownerKey, ref string) error {
	return r.db.WithContext(ctx).
		Where("owner_key = ? AND (product_id = ? OR handle = ?)", ownerKey, ref, ref).
		Delete(&models.WishlistItem{}).
		Error
}

// Clear drops every entry for the owner.
func (r *Repository) Clear(ctx context.Context, ownerKey string) error {
	return r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Delete(&models.WishlistItem{}).
		Error
}

// List returns the owner's entries in insertion order.
func (r *Repository) List(ctx context.Context, ownerKey string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("created_at ASC, id ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListPage returns up to limit entries in insertion order, starting after the
// cursor row when one is given.
func (r *Repository) ListPage(ctx context.Context, ownerKey string, limit int, cursor *pagination.Cursor) ([]models.WishlistItem, error) {
	query := r.db.WithContext(ctx).Where("owner_key = ?", ownerKey)
	if cursor != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var items []models.WishlistItem
	err := query.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
