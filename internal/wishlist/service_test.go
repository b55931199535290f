package wishlist

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/pkg/db/models"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	ddl := `CREATE TABLE wishlist_items (
		id TEXT PRIMARY KEY,
		owner_key TEXT NOT NULL,
		product_id TEXT NOT NULL,
		handle TEXT NOT NULL,
		title TEXT NOT NULL,
		price TEXT,
		default_image TEXT,
		hover_image TEXT,
		variant_id TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (owner_key, product_id)
	)`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return NewRepository(conn)
}

type recordingSyncer struct {
	mu    sync.Mutex
	calls []syncCall
}

type syncCall struct {
	customerID string
	handles    []string
}

func (r *recordingSyncer) PushAsync(ctx context.Context, customerID string, handles []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, syncCall{customerID: customerID, handles: handles})
}

func newTestWishlistService(t *testing.T, syncer ProfileSyncer) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   newTestRepo(t),
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Syncer: syncer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestToggleIsIdempotentOverTwoCalls(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()
	input := ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant", Title: "Seine Pendant"}

	added, err := svc.Toggle(ctx, "owner-1", nil, input)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !added {
		t.Fatal("expected first toggle to add")
	}

	added, err = svc.Toggle(ctx, "owner-1", nil, input)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if added {
		t.Fatal("expected second toggle to remove")
	}
	items, err := svc.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty wishlist after double toggle, got %d", len(items))
	}

	if added, _ = svc.Toggle(ctx, "owner-1", nil, input); !added {
		t.Fatal("expected third toggle to re-add")
	}
}

func TestToggleDedupsAcrossIDEncodings(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()

	if added, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}); err != nil || !added {
		t.Fatalf("first toggle: added=%v err=%v", added, err)
	}
	// Same product, numeric encoding: recognized as identical, so removed.
	if added, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "123", Handle: "other-handle"}); err != nil || added {
		t.Fatalf("expected dedup removal, added=%v err=%v", added, err)
	}

	items, err := svc.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("two encodings of one product produced %d entries", len(items))
	}
}

func TestToggleDedupsByHandle(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if added, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "gid://shopify/Product/999", Handle: "seine-pendant"}); err != nil || added {
		t.Fatalf("expected handle match to remove, added=%v err=%v", added, err)
	}
	items, _ := svc.List(ctx, "owner-1")
	if len(items) != 0 {
		t.Fatalf("expected empty wishlist, got %d entries", len(items))
	}
}

func TestRemoveByIDOrHandle(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := svc.Remove(ctx, "owner-1", nil, "seine-pendant"); err != nil {
		t.Fatalf("remove by handle: %v", err)
	}
	items, _ := svc.List(ctx, "owner-1")
	if len(items) != 0 {
		t.Fatalf("expected removal by handle, got %d entries", len(items))
	}

	if _, err := svc.Toggle(ctx, "owner-1", nil, ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}); err != nil {
		t.Fatalf("re-toggle: %v", err)
	}
	if err := svc.Remove(ctx, "owner-1", nil, "gid://shopify/Product/123"); err != nil {
		t.Fatalf("remove by gid: %v", err)
	}
	items, _ = svc.List(ctx, "owner-1")
	if len(items) != 0 {
		t.Fatalf("expected removal by id, got %d entries", len(items))
	}
}

func TestClearThenReAdd(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()
	input := ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}

	if _, err := svc.Toggle(ctx, "owner-1", nil, input); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := svc.Clear(ctx, "owner-1", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, err := svc.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty wishlist after clear, got %d", len(items))
	}

	added, err := svc.Toggle(ctx, "owner-1", nil, input)
	if err != nil {
		t.Fatalf("re-add after clear: %v", err)
	}
	if !added {
		t.Fatal("stale dedup record blocked re-adding after clear")
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	ctx := context.Background()
	input := ItemInput{ID: "gid://shopify/Product/123", Handle: "seine-pendant"}

	if _, err := svc.Toggle(ctx, "owner-1", nil, input); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	items, err := svc.List(ctx, "owner-2")
	if err != nil {
		t.Fatalf("list other owner: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("wishlist leaked across owners: %d entries", len(items))
	}
}

func TestToggleRequiresReference(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	_, err := svc.Toggle(context.Background(), "owner-1", nil, ItemInput{})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestToggleTriggersProfileSyncForCustomers(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newTestWishlistService(t, syncer)
	ctx := context.Background()
	customerID := "8812"

	if _, err := svc.Toggle(ctx, "customer:8812", &customerID, ItemInput{ID: "123", Handle: "seine-pendant"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(syncer.calls) != 1 {
		t.Fatalf("expected 1 sync push, got %d", len(syncer.calls))
	}
	call := syncer.calls[0]
	if call.customerID != "8812" || len(call.handles) != 1 || call.handles[0] != "seine-pendant" {
		t.Fatalf("unexpected sync payload %+v", call)
	}

	// Guests never trigger a profile push.
	if _, err := svc.Toggle(ctx, "guest:abc", nil, ItemInput{ID: "456", Handle: "lune-ring"}); err != nil {
		t.Fatalf("guest toggle: %v", err)
	}
	if len(syncer.calls) != 1 {
		t.Fatalf("guest toggle should not sync, got %d calls", len(syncer.calls))
	}
}

func itemFixture(ownerKey, productID, handle string) models.WishlistItem {
	return models.WishlistItem{
		OwnerKey:  ownerKey,
		ProductID: productID,
		Handle:    handle,
		Title:     handle,
	}
}

func TestListPageWalksCursor(t *testing.T) {
	repo := newTestRepo(t)
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	handles := []string{"seine-pendant", "lune-ring", "nuit-bracelet"}
	for i, handle := range handles {
		item := itemFixture("owner-1", handle, handle)
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Insert(ctx, item); err != nil {
			t.Fatalf("seed %s: %v", handle, err)
		}
	}

	first, err := svc.ListPage(ctx, "owner-1", pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == "" {
		t.Fatalf("unexpected first page: %d items, cursor %q", len(first.Items), first.NextCursor)
	}
	if first.Items[0].Handle != "seine-pendant" || first.Items[1].Handle != "lune-ring" {
		t.Fatalf("first page out of order: %+v", first.Items)
	}

	second, err := svc.ListPage(ctx, "owner-1", pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 1 || second.NextCursor != "" {
		t.Fatalf("unexpected second page: %d items, cursor %q", len(second.Items), second.NextCursor)
	}
	if second.Items[0].Handle != "nuit-bracelet" {
		t.Fatalf("second page out of order: %+v", second.Items)
	}
}

func TestListPageRejectsBadCursor(t *testing.T) {
	svc := newTestWishlistService(t, nil)
	_, err := svc.ListPage(context.Background(), "owner-1", pagination.Params{Cursor: "!!not-a-cursor!!"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRepoInsertIgnoresDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	item := itemFixture("owner-1", "123", "seine-pendant")
	if err := repo.Insert(ctx, item); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := repo.Insert(ctx, itemFixture("owner-1", "123", "seine-pendant")); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	items, err := repo.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected duplicate to be ignored, got %d entries", len(items))
	}
}
