package enums

import "fmt"

// ActivityKind is the canonical kind for storefront activity events.
type ActivityKind string

const (
	ActivityCartAdd          ActivityKind = "cart_add"
	ActivityCartUpdate       ActivityKind = "cart_update"
	ActivityCartRemove       ActivityKind = "cart_remove"
	ActivityCheckoutRedirect ActivityKind = "checkout_redirect"
	ActivityWishlistToggle   ActivityKind = "wishlist_toggle"
	ActivityWishlistClear    ActivityKind = "wishlist_clear"
)

var validActivityKinds = []ActivityKind{
	ActivityCartAdd,
	ActivityCartUpdate,
	ActivityCartRemove,
	ActivityCheckoutRedirect,
	ActivityWishlistToggle,
	ActivityWishlistClear,
}

// IsValid reports whether the value matches the canonical activity kind enum.
func (a ActivityKind) IsValid() bool {
	for _, candidate := range validActivityKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityKind converts the raw string to ActivityKind.
func ParseActivityKind(value string) (ActivityKind, error) {
	for _, candidate := range validActivityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity kind %q", value)
}
