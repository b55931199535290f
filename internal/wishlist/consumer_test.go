package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

type recordingPusher struct {
	err     error
	pushes  []string
	handles [][]string
}

func (p *recordingPusher) Push(ctx context.Context, customerID string, handles []string) error {
	p.pushes = append(p.pushes, customerID)
	p.handles = append(p.handles, handles)
	return p.err
}

func newTestConsumer(t *testing.T, repo *Repository, pusher profilePusher) *SyncConsumer {
	t.Helper()
	return &SyncConsumer{
		repo:   repo,
		pusher: pusher,
		logg:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func wishlistEvent(t *testing.T, kind, ownerKey string) []byte {
	t.Helper()
	payload, err := json.Marshal(activityEnvelope{
		EventID: "evt-1",
		Kind:    kind,
		Fields:  map[string]any{"owner_key": ownerKey},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return payload
}

func TestConsumerPushesCustomerHandles(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.Insert(ctx, itemFixture("customer:8812", "123", "seine-pendant")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.Insert(ctx, itemFixture("customer:8812", "456", "lune-ring")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	pusher := &recordingPusher{}
	consumer := newTestConsumer(t, repo, pusher)

	data := wishlistEvent(t, "wishlist_toggle", "customer:8812")
	if err := consumer.handle(ctx, data, map[string]string{"kind": "wishlist_toggle"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(pusher.pushes) != 1 || pusher.pushes[0] != "8812" {
		t.Fatalf("unexpected push targets %v", pusher.pushes)
	}
	if len(pusher.handles[0]) != 2 {
		t.Fatalf("expected 2 handles, got %v", pusher.handles[0])
	}
}

func TestConsumerSkipsGuestEvents(t *testing.T) {
	pusher := &recordingPusher{}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)

	data := wishlistEvent(t, "wishlist_toggle", "session:sess-1")
	if err := consumer.handle(context.Background(), data, map[string]string{"kind": "wishlist_toggle"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pusher.pushes) != 0 {
		t.Fatalf("guest event must not sync: %v", pusher.pushes)
	}
}

func TestConsumerSkipsUnrelatedKinds(t *testing.T) {
	pusher := &recordingPusher{}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)

	data := wishlistEvent(t, "cart_add", "customer:8812")
	if err := consumer.handle(context.Background(), data, map[string]string{"kind": "cart_add"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pusher.pushes) != 0 {
		t.Fatalf("cart event must not sync: %v", pusher.pushes)
	}
}

func TestConsumerSurfacesPushFailureForRedelivery(t *testing.T) {
	pusher := &recordingPusher{err: errors.New("admin api down")}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)

	data := wishlistEvent(t, "wishlist_clear", "customer:8812")
	if err := consumer.handle(context.Background(), data, map[string]string{"kind": "wishlist_clear"}); err == nil {
		t.Fatal("expected push failure to surface")
	}
}

type fakeGuard struct {
	seen    map[string]bool
	deleted []string
}

func (g *fakeGuard) CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error) {
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	key := consumer + ":" + eventID
	if g.seen[key] {
		return true, nil
	}
	g.seen[key] = true
	return false, nil
}

func (g *fakeGuard) Delete(ctx context.Context, consumer, eventID string) error {
	delete(g.seen, consumer+":"+eventID)
	g.deleted = append(g.deleted, eventID)
	return nil
}

func TestConsumerDropsDuplicateEvents(t *testing.T) {
	pusher := &recordingPusher{}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)
	consumer.guard = &fakeGuard{}

	data := wishlistEvent(t, "wishlist_toggle", "customer:8812")
	attrs := map[string]string{"kind": "wishlist_toggle"}
	if err := consumer.handle(context.Background(), data, attrs); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := consumer.handle(context.Background(), data, attrs); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(pusher.pushes) != 1 {
		t.Fatalf("duplicate must push once, got %d", len(pusher.pushes))
	}
}

func TestConsumerClearsDedupeMarkOnFailure(t *testing.T) {
	pusher := &recordingPusher{err: errors.New("admin api down")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)
	consumer.guard = guard

	data := wishlistEvent(t, "wishlist_clear", "customer:8812")
	attrs := map[string]string{"kind": "wishlist_clear"}
	if err := consumer.handle(context.Background(), data, attrs); err == nil {
		t.Fatal("expected push failure to surface")
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt-1" {
		t.Fatalf("failed event must clear its mark: %v", guard.deleted)
	}

	// The retry is not treated as a duplicate.
	pusher.err = nil
	if err := consumer.handle(context.Background(), data, attrs); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(pusher.pushes) != 2 {
		t.Fatalf("expected retry push, got %d total", len(pusher.pushes))
	}
}

func TestConsumerDropsUndecodablePayload(t *testing.T) {
	pusher := &recordingPusher{}
	consumer := newTestConsumer(t, newTestRepo(t), pusher)

	if err := consumer.handle(context.Background(), []byte("{not json"), map[string]string{"kind": "wishlist_toggle"}); err != nil {
		t.Fatalf("undecodable payload must ack, got %v", err)
	}
	if len(pusher.pushes) != 0 {
		t.Fatalf("unexpected push %v", pusher.pushes)
	}
}
