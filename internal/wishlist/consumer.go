package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/aurelle-jewelry/storefront-backend/pkg/enums"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

const (
	customerOwnerPrefix = "customer:"
	syncConsumerName    = "wishlist-sync"
)

type profilePusher interface {
	Push(ctx context.Context, customerID string, handles []string) error
}

type subscriptionReceiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// eventGuard marks events processed so redeliveries are dropped. A failed
// handler clears its mark to let the event through again.
type eventGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

type activityEnvelope struct {
	EventID string         `json:"event_id"`
	Kind    string         `json:"kind"`
	Fields  map[string]any `json:"fields"`
}

// SyncConsumer drains wishlist activity events and pushes the owner's
// current handle set to the customer profile. Guest events are dropped;
// there is no profile to sync.
type SyncConsumer struct {
	sub    subscriptionReceiver
	repo   *Repository
	pusher profilePusher
	guard  eventGuard
	logg   *logger.Logger
}

// NewSyncConsumer builds the Pub/Sub driven profile sync worker. The guard
// is optional; without one every redelivery is handled again.
func NewSyncConsumer(sub subscriptionReceiver, repo *Repository, pusher profilePusher, guard eventGuard, logg *logger.Logger) (*SyncConsumer, error) {
	if sub == nil {
		return nil, fmt.Errorf("subscription is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository is required")
	}
	if pusher == nil {
		return nil, fmt.Errorf("profile pusher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &SyncConsumer{sub: sub, repo: repo, pusher: pusher, guard: guard, logg: logg}, nil
}

// Run blocks receiving messages until the context is canceled.
func (c *SyncConsumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if err := c.handle(msgCtx, msg.Data, msg.Attributes); err != nil {
			logCtx := c.logg.WithField(msgCtx, "error", err.Error())
			c.logg.Warn(logCtx, "wishlist sync event failed, will redeliver")
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *SyncConsumer) handle(ctx context.Context, data []byte, attrs map[string]string) error {
	kind := enums.ActivityKind(attrs["kind"])
	switch kind {
	case enums.ActivityWishlistToggle, enums.ActivityWishlistClear:
	default:
		// Not a wishlist event; ack and move on.
		return nil
	}

	var envelope activityEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "kind", string(kind)), "undecodable wishlist event dropped")
		return nil
	}

	ownerKey, _ := envelope.Fields["owner_key"].(string)
	if !strings.HasPrefix(ownerKey, customerOwnerPrefix) {
		return nil
	}
	customerID := strings.TrimPrefix(ownerKey, customerOwnerPrefix)
	if customerID == "" {
		return nil
	}

	if seen, err := c.markProcessed(ctx, envelope.EventID); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "event dedupe check failed, processing anyway")
	} else if seen {
		c.logg.Info(c.logg.WithField(ctx, "event_id", envelope.EventID), "duplicate wishlist event dropped")
		return nil
	}

	if err := c.sync(ctx, ownerKey, customerID); err != nil {
		c.unmarkProcessed(ctx, envelope.EventID)
		return err
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id": envelope.EventID,
		"kind":     string(kind),
	})
	c.logg.Info(logCtx, "wishlist profile synced")
	return nil
}

func (c *SyncConsumer) sync(ctx context.Context, ownerKey, customerID string) error {
	items, err := c.repo.List(ctx, ownerKey)
	if err != nil {
		return fmt.Errorf("list wishlist for %s: %w", ownerKey, err)
	}
	handles := make([]string, 0, len(items))
	for _, item := range items {
		handles = append(handles, item.Handle)
	}

	if err := c.pusher.Push(ctx, customerID, handles); err != nil {
		return fmt.Errorf("push wishlist profile: %w", err)
	}
	return nil
}

func (c *SyncConsumer) markProcessed(ctx context.Context, eventID string) (bool, error) {
	if c.guard == nil || eventID == "" {
		return false, nil
	}
	return c.guard.CheckAndMarkProcessed(ctx, syncConsumerName, eventID)
}

func (c *SyncConsumer) unmarkProcessed(ctx context.Context, eventID string) {
	if c.guard == nil || eventID == "" {
		return
	}
	if err := c.guard.Delete(ctx, syncConsumerName, eventID); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "event_id", eventID), "failed to clear event dedupe mark")
	}
}
