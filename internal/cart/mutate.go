package cart

import (
	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

// applyAdd appends or increments the line for the variant and recomputes
// totals. The edit is speculative until the remote service confirms it.
func applyAdd(c *shopify.Cart, variant Variant, product Product) {
	for i := range c.Lines {
		if c.Lines[i].MerchandiseID == variant.MerchandiseID {
			c.Lines[i].Quantity++
			recomputeTotals(c)
			return
		}
	}
	c.Lines = append(c.Lines, shopify.Line{
		MerchandiseID: variant.MerchandiseID,
		Quantity:      1,
		UnitPrice:     variant.UnitPrice,
		CurrencyCode:  variant.CurrencyCode,
		Product: shopify.ProductSnapshot{
			ID:       product.ID,
			Handle:   product.Handle,
			Title:    product.Title,
			ImageURL: product.ImageURL,
		},
	})
	recomputeTotals(c)
}

// applyUpdate adjusts the line for the merchandise ID. A decrement that
// would reach zero removes the line entirely. Returns the line that was
// touched (pre-mutation) and false when no line matches.
func applyUpdate(c *shopify.Cart, merchandiseID string, direction Direction) (shopify.Line, bool) {
	idx := -1
	for i := range c.Lines {
		if c.Lines[i].MerchandiseID == merchandiseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shopify.Line{}, false
	}
	line := c.Lines[idx]

	switch direction {
	case DirectionIncrement:
		c.Lines[idx].Quantity++
	case DirectionDecrement:
		if line.Quantity <= 1 {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		} else {
			c.Lines[idx].Quantity--
		}
	case DirectionDelete:
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	}
	recomputeTotals(c)
	return line, true
}

// recomputeTotals derives TotalQuantity and Cost from the lines. Totals are
// never mutated independently of the line list.
func recomputeTotals(c *shopify.Cart) {
	total := 0
	subtotal := decimal.Zero
	currency := c.Cost.Currency
	for _, line := range c.Lines {
		total += line.Quantity
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		if currency == "" {
			currency = line.CurrencyCode
		}
	}
	c.TotalQuantity = total
	c.Cost.Subtotal = subtotal
	// Tax is server-computed; the speculative total carries subtotal plus the
	// last known tax until the authoritative response supersedes it.
	c.Cost.Total = subtotal.Add(c.Cost.Tax)
	c.Cost.Currency = currency
}

// cloneCart returns a deep copy so optimistic edits never alias the snapshot
// a caller still holds.
func cloneCart(c shopify.Cart) shopify.Cart {
	out := c
	out.Lines = make([]shopify.Line, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}
