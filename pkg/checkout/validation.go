package checkout

import (
	"fmt"
	"strings"

	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
)

// LineViolationDetail exposes the data returned to callers when a cart line
// cannot proceed to checkout.
type LineViolationDetail struct {
	LineID        string `json:"line_id,omitempty"`
	MerchandiseID string `json:"merchandise_id"`
	Quantity      int    `json:"quantity"`
}

// ValidateReady ensures the cart carries a checkout URL and every line holds a
// positive quantity before the storefront hands the URL to the browser.
func ValidateReady(cart shopify.Cart) error {
	if strings.TrimSpace(cart.CheckoutURL) == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart has no checkout url")
	}

	var violations []LineViolationDetail
	for _, line := range cart.Lines {
		if line.Quantity > 0 {
			continue
		}
		violations = append(violations, LineViolationDetail{
			LineID:        line.ID,
			MerchandiseID: line.MerchandiseID,
			Quantity:      line.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%d cart line(s) cannot be checked out", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
