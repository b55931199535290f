package shopify

import (
	"strings"
)

// NormalizeProductID reduces a Shopify global ID (gid://shopify/Product/123)
// to its trailing numeric segment so differently-encoded references to the
// same resource compare equal. Inputs without a GID shape pass through trimmed.
func NormalizeProductID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}
	if idx := strings.IndexAny(id, "?#"); idx >= 0 {
		id = id[:idx]
	}
	id = strings.TrimRight(id, "/")
	if idx := strings.LastIndex(id, "/"); idx >= 0 {
		id = id[idx+1:]
	}
	return id
}
