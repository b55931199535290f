package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/pkg/checkout"
	"github.com/aurelle-jewelry/storefront-backend/pkg/enums"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/metrics"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
)

// ActivityRecorder receives fire-and-forget activity events.
type ActivityRecorder interface {
	Record(ctx context.Context, kind enums.ActivityKind, fields map[string]any)
}

// Service exposes the session-scoped cart mirror and its mutation protocol:
// apply the edit speculatively, persist the mirror, confirm against the
// remote cart service, and adopt the authoritative response. A failed
// confirmation discards the speculative state and re-fetches server truth.
type Service interface {
	Hydrate(ctx context.Context, sessionID string) (*Snapshot, error)
	AddItem(ctx context.Context, sessionID string, variant Variant, product Product) (*Snapshot, error)
	UpdateItem(ctx context.Context, sessionID, merchandiseID string, direction Direction) (*Snapshot, error)
	FetchCart(ctx context.Context, sessionID string) (*Snapshot, error)
	CheckoutURL(ctx context.Context, sessionID string) (string, error)
}

type service struct {
	remote   Remote
	mirrors  SnapshotStore
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	activity ActivityRecorder
}

// NewService builds the cart service. Metrics and the activity recorder are
// optional; remote, mirror store, and logger are not.
func NewService(remote Remote, mirrors SnapshotStore, logg *logger.Logger, m *metrics.StorefrontMetrics, activity ActivityRecorder) (Service, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote cart service required")
	}
	if mirrors == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		remote:   remote,
		mirrors:  mirrors,
		logg:     logg,
		metrics:  m,
		activity: activity,
	}, nil
}

// Hydrate restores the persisted mirror for the session. Missing, corrupt,
// or unknown-version blobs yield an empty snapshot; hydration never fails.
func (s *service) Hydrate(ctx context.Context, sessionID string) (*Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	snap := s.loadOrEmpty(ctx, sessionID)
	if !snap.Hydrated {
		snap.Hydrated = true
		s.persist(ctx, sessionID, snap)
	}
	return snap, nil
}

// AddItem increments the line for the variant (or appends one at quantity 1),
// then confirms against the remote service.
func (s *service) AddItem(ctx context.Context, sessionID string, variant Variant, product Product) (*Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if strings.TrimSpace(variant.MerchandiseID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchandise id is required")
	}
	if variant.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	start := time.Now()
	snap := s.loadOrEmpty(ctx, sessionID)
	seq := snap.Seq + 1

	optimistic := cloneCart(snap.Cart)
	applyAdd(&optimistic, variant, product)
	s.persist(ctx, sessionID, &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Seq:           seq,
		Hydrated:      true,
		Cart:          optimistic,
	})

	cartID := snap.Cart.ID
	if cartID == "" {
		created, err := s.remote.CreateCart(ctx)
		if err != nil {
			s.observeMutation("add_item", start, false)
			return s.recover(ctx, sessionID, "", seq, snap.Cart, err)
		}
		cartID = created.ID
	}

	authoritative, err := s.remote.AddLine(ctx, cartID, variant.MerchandiseID, 1)
	if err != nil {
		s.observeMutation("add_item", start, false)
		return s.recover(ctx, sessionID, cartID, seq, snap.Cart, err)
	}
	s.observeMutation("add_item", start, true)
	s.record(ctx, enums.ActivityCartAdd, map[string]any{
		"session_id":     sessionID,
		"merchandise_id": variant.MerchandiseID,
	})
	return s.adopt(ctx, sessionID, seq, authoritative)
}

// UpdateItem changes a line's quantity by direction. A decrement reaching
// zero removes the line rather than keeping it at zero.
func (s *service) UpdateItem(ctx context.Context, sessionID, merchandiseID string, direction Direction) (*Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if strings.TrimSpace(merchandiseID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchandise id is required")
	}
	if !direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid direction %q", direction))
	}

	start := time.Now()
	snap := s.loadOrEmpty(ctx, sessionID)

	var prior *shopify.Line
	for i := range snap.Cart.Lines {
		if snap.Cart.Lines[i].MerchandiseID == merchandiseID {
			prior = &snap.Cart.Lines[i]
			break
		}
	}
	if prior == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no cart line for merchandise %s", merchandiseID))
	}
	if snap.Cart.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart has not been confirmed by the storefront yet")
	}
	cartID := snap.Cart.ID
	priorLine := *prior
	seq := snap.Seq + 1

	optimistic := cloneCart(snap.Cart)
	applyUpdate(&optimistic, merchandiseID, direction)
	s.persist(ctx, sessionID, &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Seq:           seq,
		Hydrated:      true,
		Cart:          optimistic,
	})

	authoritative, err := s.confirmUpdate(ctx, cartID, merchandiseID, priorLine, direction)
	if err != nil {
		s.observeMutation("update_item", start, false)
		return s.recover(ctx, sessionID, cartID, seq, snap.Cart, err)
	}
	s.observeMutation("update_item", start, true)
	kind := enums.ActivityCartUpdate
	if direction == DirectionDelete || (direction == DirectionDecrement && priorLine.Quantity <= 1) {
		kind = enums.ActivityCartRemove
	}
	s.record(ctx, kind, map[string]any{
		"session_id":     sessionID,
		"merchandise_id": merchandiseID,
		"direction":      string(direction),
	})
	return s.adopt(ctx, sessionID, seq, authoritative)
}

// FetchCart unconditionally replaces the mirror with the authoritative remote
// snapshot. Used as the initial load and as the recovery path.
func (s *service) FetchCart(ctx context.Context, sessionID string) (*Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	snap := s.loadOrEmpty(ctx, sessionID)
	if snap.Cart.ID == "" {
		// Nothing remote to reconcile against yet.
		snap.Hydrated = true
		s.persist(ctx, sessionID, snap)
		return snap, nil
	}

	authoritative, err := s.remote.FetchCart(ctx, snap.Cart.ID)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, sessionID, snap.Seq+1, authoritative)
}

// CheckoutURL returns the opaque checkout URL carried by the cart verbatim.
func (s *service) CheckoutURL(ctx context.Context, sessionID string) (string, error) {
	snap := s.loadOrEmpty(ctx, sessionID)
	if err := checkout.ValidateReady(snap.Cart); err != nil {
		return "", err
	}
	s.record(ctx, enums.ActivityCheckoutRedirect, map[string]any{
		"session_id": sessionID,
		"cart_id":    snap.Cart.ID,
	})
	return strings.TrimSpace(snap.Cart.CheckoutURL), nil
}

// confirmUpdate issues the remote mutation matching the local edit. Lines
// added before their confirmation arrived may lack a server line ID, in
// which case it is resolved from a fresh authoritative fetch.
func (s *service) confirmUpdate(ctx context.Context, cartID, merchandiseID string, prior shopify.Line, direction Direction) (*shopify.Cart, error) {
	lineID := prior.ID
	if lineID == "" && direction == DirectionIncrement {
		return s.remote.AddLine(ctx, cartID, merchandiseID, 1)
	}
	if lineID == "" {
		fetched, err := s.remote.FetchCart(ctx, cartID)
		if err != nil {
			return nil, err
		}
		for _, line := range fetched.Lines {
			if line.MerchandiseID == merchandiseID {
				lineID = line.ID
				break
			}
		}
		if lineID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no remote line for merchandise %s", merchandiseID))
		}
	}

	switch direction {
	case DirectionIncrement:
		return s.remote.UpdateLine(ctx, cartID, lineID, merchandiseID, prior.Quantity+1)
	case DirectionDecrement:
		if prior.Quantity <= 1 {
			return s.remote.RemoveLines(ctx, cartID, []string{lineID})
		}
		return s.remote.UpdateLine(ctx, cartID, lineID, merchandiseID, prior.Quantity-1)
	default:
		return s.remote.RemoveLines(ctx, cartID, []string{lineID})
	}
}

// adopt replaces the mirror with the authoritative cart unless a newer
// mutation already superseded this confirmation.
func (s *service) adopt(ctx context.Context, sessionID string, seq uint64, authoritative *shopify.Cart) (*Snapshot, error) {
	current := s.loadOrEmpty(ctx, sessionID)
	if current.Seq > seq {
		s.metrics.IncStaleDropped()
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"confirmation_seq": seq,
			"current_seq":      current.Seq,
		}), "stale cart confirmation dropped")
		return current, nil
	}
	snap := &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Seq:           seq,
		Hydrated:      true,
		Cart:          *authoritative,
	}
	s.persist(ctx, sessionID, snap)
	return snap, nil
}

// recover discards the speculative state after a failed confirmation:
// re-fetch server truth, persist it, and propagate the original error. When
// the re-fetch itself fails, the last confirmed cart is restored instead so
// a transient outage never erases known server state.
func (s *service) recover(ctx context.Context, sessionID, cartID string, seq uint64, prior shopify.Cart, cause error) (*Snapshot, error) {
	s.metrics.IncRefetch()

	authoritative := cloneCart(prior)
	if cartID != "" {
		fetched, err := s.remote.FetchCart(ctx, cartID)
		if err != nil {
			s.logg.Error(ctx, "authoritative re-fetch failed after cart mutation failure, keeping last confirmed cart", err)
		} else {
			authoritative = *fetched
		}
	}

	current := s.loadOrEmpty(ctx, sessionID)
	if current.Seq > seq {
		s.metrics.IncStaleDropped()
		return current, cause
	}
	snap := &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Seq:           seq,
		Hydrated:      true,
		Cart:          authoritative,
	}
	s.persist(ctx, sessionID, snap)
	return snap, cause
}

func (s *service) loadOrEmpty(ctx context.Context, sessionID string) *Snapshot {
	snap, err := s.mirrors.Load(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart mirror load failed, defaulting to empty")
		return EmptySnapshot()
	}
	if snap == nil || snap.SchemaVersion != SnapshotSchemaVersion {
		return EmptySnapshot()
	}
	if snap.Cart.Lines == nil {
		snap.Cart.Lines = []shopify.Line{}
	}
	return snap
}

func (s *service) persist(ctx context.Context, sessionID string, snap *Snapshot) {
	if err := s.mirrors.Save(ctx, sessionID, snap); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart mirror save failed")
	}
}

func (s *service) observeMutation(op string, start time.Time, ok bool) {
	s.metrics.ObserveMutation(op, time.Since(start))
	if ok {
		s.metrics.IncMutationSuccess(op)
	} else {
		s.metrics.IncMutationFailure(op)
	}
}

func (s *service) record(ctx context.Context, kind enums.ActivityKind, fields map[string]any) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, kind, fields)
}
