package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/aurelle-jewelry/storefront-backend/pkg/enums"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

const publishTimeout = 10 * time.Second

// Envelope is the wire shape of a storefront activity event.
type Envelope struct {
	EventID    string         `json:"event_id"`
	Kind       string         `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// ActivityPublisher emits storefront activity events (cart mutations,
// wishlist toggles, checkout redirects) to the activity topic. Publishing is
// best effort: a failed publish is logged and never surfaces to the caller.
type ActivityPublisher struct {
	pub  publisher
	logg *logger.Logger
}

// NewActivityPublisher wraps a Pub/Sub publisher for the activity topic.
func NewActivityPublisher(pub *gcppubsub.Publisher, logg *logger.Logger) (*ActivityPublisher, error) {
	if pub == nil {
		return nil, errors.New("activity topic publisher is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &ActivityPublisher{pub: &gcpPublisher{Publisher: pub}, logg: logg}, nil
}

// Record publishes the event in the background. The caller's deadline does
// not bound the publish; request cancellation must not lose activity.
func (p *ActivityPublisher) Record(ctx context.Context, kind enums.ActivityKind, fields map[string]any) {
	if p == nil || p.pub == nil {
		return
	}
	if !kind.IsValid() {
		p.logg.Warn(p.logg.WithField(ctx, "kind", string(kind)), "unknown activity kind dropped")
		return
	}
	envelope := Envelope{
		EventID:    uuid.NewString(),
		Kind:       string(kind),
		OccurredAt: time.Now().UTC(),
		Fields:     fields,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		p.logg.Warn(p.logg.WithField(ctx, "kind", string(kind)), "activity event marshal failed")
		return
	}

	background := context.WithoutCancel(ctx)
	go func() {
		publishCtx, cancel := context.WithTimeout(background, publishTimeout)
		defer cancel()

		msg := &gcppubsub.Message{
			Data: payload,
			Attributes: map[string]string{
				"event_id":   envelope.EventID,
				"kind":       string(kind),
				"created_at": envelope.OccurredAt.Format(time.RFC3339Nano),
			},
		}
		result := p.pub.Publish(publishCtx, msg)
		if result == nil {
			p.logg.Warn(p.logg.WithField(background, "kind", string(kind)), "activity publisher returned nil result")
			return
		}
		if _, err := result.Get(publishCtx); err != nil {
			fields := p.logg.WithFields(background, map[string]any{
				"kind":  string(kind),
				"error": err.Error(),
			})
			p.logg.Warn(fields, "activity event publish failed")
		}
	}()
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
