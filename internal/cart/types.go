package cart

import (
	"context"

	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

// SnapshotSchemaVersion tags the persisted mirror blob. Blobs carrying a
// different version hydrate as empty instead of failing.
const SnapshotSchemaVersion = 1

// Direction selects how UpdateItem changes a line's quantity.
type Direction string

const (
	DirectionIncrement Direction = "increment"
	DirectionDecrement Direction = "decrement"
	DirectionDelete    Direction = "delete"
)

// IsValid reports whether the direction is one of the supported values.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionIncrement, DirectionDecrement, DirectionDelete:
		return true
	}
	return false
}

// Variant is the purchasable SKU being added to the cart.
type Variant struct {
	MerchandiseID string
	UnitPrice     decimal.Decimal
	CurrencyCode  string
}

// Product is the parent product descriptor carried alongside a variant.
type Product struct {
	ID       string
	Handle   string
	Title    string
	ImageURL string
}

// Snapshot is the session-scoped cart mirror persisted between requests.
type Snapshot struct {
	SchemaVersion int          `json:"schema_version"`
	Seq           uint64       `json:"seq"`
	Hydrated      bool         `json:"hydrated"`
	Cart          shopify.Cart `json:"cart"`
}

// EmptySnapshot returns the placeholder state used before hydration and as
// the fallback when a persisted blob is missing, unreadable, or from an
// unknown schema version.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Cart: shopify.Cart{
			Lines: []shopify.Line{},
		},
	}
}

// Remote is the authoritative cart service boundary. Every call returns the
// full cart shape.
type Remote interface {
	FetchCart(ctx context.Context, cartID string) (*shopify.Cart, error)
	CreateCart(ctx context.Context) (*shopify.Cart, error)
	AddLine(ctx context.Context, cartID, merchandiseID string, quantity int) (*shopify.Cart, error)
	UpdateLine(ctx context.Context, cartID, lineID, merchandiseID string, quantity int) (*shopify.Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*shopify.Cart, error)
}

// SnapshotStore persists the serialized mirror blob per session key.
type SnapshotStore interface {
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, sessionID string, snap *Snapshot) error
}
