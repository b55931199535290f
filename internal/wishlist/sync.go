package wishlist

import (
	"context"
	"fmt"

	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
)

type metafieldWriter interface {
	UpsertCustomerMetafield(ctx context.Context, customerID, namespace, key string, values []string) error
}

// MetafieldSyncer pushes wishlist handles to a Shopify customer metafield
// with bounded exponential backoff.
type MetafieldSyncer struct {
	admin   metafieldWriter
	cfg     config.WishlistSyncConfig
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics
}

// NewMetafieldSyncer builds the opportunistic profile syncer.
func NewMetafieldSyncer(admin metafieldWriter, cfg config.WishlistSyncConfig, logg *logger.Logger, m *metrics.StorefrontMetrics) (*MetafieldSyncer, error) {
	if admin == nil {
		return nil, fmt.Errorf("admin client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	return &MetafieldSyncer{admin: admin, cfg: cfg, logg: logg, metrics: m}, nil
}

// Push writes the handle set to the customer's wishlist metafield, retrying
// transient failures up to the configured attempt limit.
func (s *MetafieldSyncer) Push(ctx context.Context, customerID string, handles []string) error {
	backoff := retry.NewExponential(s.cfg.InitialBackoff)
	backoff = retry.WithMaxRetries(uint64(s.cfg.MaxAttempts-1), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.admin.UpsertCustomerMetafield(ctx, customerID, s.cfg.MetafieldNamespace, s.cfg.MetafieldKey, handles); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.metrics.IncWishlistSync("failure")
		return fmt.Errorf("pushing wishlist metafield: %w", err)
	}
	s.metrics.IncWishlistSync("success")
	return nil
}

// PushAsync runs Push in the background with its own deadline. Failures are
// logged only; the wishlist in local storage stays authoritative.
func (s *MetafieldSyncer) PushAsync(ctx context.Context, customerID string, handles []string) {
	fields := s.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"customer_id": customerID,
		"handles":     len(handles),
	})
	go func() {
		pushCtx, cancel := context.WithTimeout(fields, s.cfg.PushTimeout)
		defer cancel()
		if err := s.Push(pushCtx, customerID, handles); err != nil {
			s.logg.Warn(pushCtx, "wishlist profile sync failed")
		}
	}()
}
