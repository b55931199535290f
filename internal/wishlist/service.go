package wishlist

import (
	"context"
	"strings"

	"github.com/aurelle-jewelry/storefront-backend/pkg/db/models"
	"github.com/aurelle-jewelry/storefront-backend/pkg/enums"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pagination"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
)

// ProfileSyncer pushes the owner's wishlist handles toward the remote
// profile. Best effort: callers never wait on or surface its failures.
type ProfileSyncer interface {
	PushAsync(ctx context.Context, customerID string, handles []string)
}

// ActivityRecorder receives fire-and-forget activity events.
type ActivityRecorder interface {
	Record(ctx context.Context, kind enums.ActivityKind, fields map[string]any)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo     *Repository
	Logger   *logger.Logger
	Syncer   ProfileSyncer
	Activity ActivityRecorder
}

// Service exposes the local-first wishlist rules: membership is keyed by
// normalized product ID or handle, and no remote confirmation is awaited.
type Service interface {
	Toggle(ctx context.Context, ownerKey string, customerID *string, input ItemInput) (added bool, err error)
	Remove(ctx context.Context, ownerKey string, customerID *string, ref string) error
	Clear(ctx context.Context, ownerKey string, customerID *string) error
	List(ctx context.Context, ownerKey string) ([]Item, error)
	ListPage(ctx context.Context, ownerKey string, params pagination.Params) (*Page, error)
}

type service struct {
	repo     *Repository
	logg     *logger.Logger
	syncer   ProfileSyncer
	activity ActivityRecorder
}

// NewService builds a wishlist service. Syncer and activity are optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		repo:     params.Repo,
		logg:     params.Logger,
		syncer:   params.Syncer,
		activity: params.Activity,
	}, nil
}

// Toggle removes the item when a matching entry exists (by normalized ID or
// handle) and appends it otherwise.
func (s *service) Toggle(ctx context.Context, ownerKey string, customerID *string, input ItemInput) (bool, error) {
	if strings.TrimSpace(ownerKey) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}
	normalizedID := shopify.NormalizeProductID(input.ID)
	handle := strings.TrimSpace(input.Handle)
	if normalizedID == "" && handle == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id or handle is required")
	}

	existing, err := s.repo.FindMatch(ctx, ownerKey, normalizedID, handle)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist entry")
	}

	added := existing == nil
	if existing != nil {
		if err := s.repo.Delete(ctx, ownerKey, existing.ProductID); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist entry")
		}
	} else {
		item := models.WishlistItem{
			OwnerKey:     ownerKey,
			ProductID:    normalizedID,
			Handle:       handle,
			Title:        strings.TrimSpace(input.Title),
			Price:        strings.TrimSpace(input.Price),
			DefaultImage: strings.TrimSpace(input.DefaultImage),
			HoverImage:   input.HoverImage,
			VariantID:    input.VariantID,
		}
		if item.ProductID == "" {
			item.ProductID = handle
		}
		if item.Handle == "" {
			item.Handle = normalizedID
		}
		if err := s.repo.Insert(ctx, item); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert wishlist entry")
		}
	}

	s.record(ctx, enums.ActivityWishlistToggle, map[string]any{
		"owner_key":  ownerKey,
		"product_id": normalizedID,
		"added":      added,
	})
	s.syncProfile(ctx, ownerKey, customerID)
	return added, nil
}

// Remove deletes by either normalized product ID or raw handle match.
func (s *service) Remove(ctx context.Context, ownerKey string, customerID *string, ref string) error {
	if strings.TrimSpace(ownerKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}
	normalized := shopify.NormalizeProductID(ref)
	if normalized == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product reference is required")
	}
	if err := s.repo.Delete(ctx, ownerKey, normalized); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist entry")
	}
	s.syncProfile(ctx, ownerKey, customerID)
	return nil
}

// Clear empties the list unconditionally.
func (s *service) Clear(ctx context.Context, ownerKey string, customerID *string) error {
	if strings.TrimSpace(ownerKey) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}
	if err := s.repo.Clear(ctx, ownerKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	s.record(ctx, enums.ActivityWishlistClear, map[string]any{"owner_key": ownerKey})
	s.syncProfile(ctx, ownerKey, customerID)
	return nil
}

// List returns the owner's wishlist in insertion order.
func (s *service) List(ctx context.Context, ownerKey string) ([]Item, error) {
	if strings.TrimSpace(ownerKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}
	records, err := s.repo.List(ctx, ownerKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return itemsFromRecords(records), nil
}

// ListPage returns one page of the owner's wishlist plus the cursor for the
// next page, empty when this page is the last.
func (s *service) ListPage(ctx context.Context, ownerKey string, params pagination.Params) (*Page, error) {
	if strings.TrimSpace(ownerKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner key is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	records, err := s.repo.ListPage(ctx, ownerKey, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist page")
	}

	page := &Page{}
	if len(records) > limit {
		last := records[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		records = records[:limit]
	}
	page.Items = itemsFromRecords(records)
	return page, nil
}

func itemsFromRecords(records []models.WishlistItem) []Item {
	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, Item{
			ID:           record.ProductID,
			Handle:       record.Handle,
			Title:        record.Title,
			Price:        record.Price,
			DefaultImage: record.DefaultImage,
			HoverImage:   record.HoverImage,
			VariantID:    record.VariantID,
			CreatedAt:    record.CreatedAt,
		})
	}
	return items
}

// syncProfile kicks the opportunistic metafield push for signed-in owners.
// Local storage remains the source of truth; failures never surface.
func (s *service) syncProfile(ctx context.Context, ownerKey string, customerID *string) {
	if s.syncer == nil || customerID == nil || strings.TrimSpace(*customerID) == "" {
		return
	}
	records, err := s.repo.List(ctx, ownerKey)
	if err != nil {
		s.logg.Warn(ctx, "wishlist sync skipped: listing entries failed")
		return
	}
	handles := make([]string, 0, len(records))
	for _, record := range records {
		handles = append(handles, record.Handle)
	}
	s.syncer.PushAsync(ctx, *customerID, handles)
}

func (s *service) record(ctx context.Context, kind enums.ActivityKind, fields map[string]any) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, kind, fields)
}
