package cart

import (
	"testing"

	"github.com/aurelle-jewelry/storefront-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

func testVariant(id, price string) Variant {
	return Variant{
		MerchandiseID: id,
		UnitPrice:     decimal.RequireFromString(price),
		CurrencyCode:  "USD",
	}
}

func testProduct(handle string) Product {
	return Product{
		ID:     "p-" + handle,
		Handle: handle,
		Title:  handle,
	}
}

func sumQuantities(c *shopify.Cart) int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func TestApplyAddAccumulatesQuantity(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	variant := testVariant("v1", "149.00")
	product := testProduct("seine-pendant")

	for i := 1; i <= 5; i++ {
		applyAdd(c, variant, product)
		if len(c.Lines) != 1 {
			t.Fatalf("expected a single line after %d adds, got %d", i, len(c.Lines))
		}
		if c.Lines[0].Quantity != i {
			t.Fatalf("expected quantity %d, got %d", i, c.Lines[0].Quantity)
		}
		if c.TotalQuantity != i {
			t.Fatalf("expected total quantity %d, got %d", i, c.TotalQuantity)
		}
	}

	want := decimal.RequireFromString("745.00")
	if !c.Cost.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, c.Cost.Subtotal)
	}
}

func TestApplyAddAppendsNewLine(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant"))
	applyAdd(c, testVariant("v2", "89.00"), testProduct("lune-ring"))

	if len(c.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Lines))
	}
	if c.TotalQuantity != 2 {
		t.Fatalf("expected total quantity 2, got %d", c.TotalQuantity)
	}
	want := decimal.RequireFromString("238.00")
	if !c.Cost.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, c.Cost.Subtotal)
	}
	if c.Cost.Currency != "USD" {
		t.Fatalf("expected currency USD, got %q", c.Cost.Currency)
	}
}

func TestApplyUpdateDecrementToZeroRemovesLine(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant"))
	applyAdd(c, testVariant("v2", "89.00"), testProduct("lune-ring"))

	if _, ok := applyUpdate(c, "v1", DirectionDecrement); !ok {
		t.Fatal("expected line to be found")
	}
	for _, line := range c.Lines {
		if line.MerchandiseID == "v1" {
			t.Fatal("line at quantity zero should be removed, not retained")
		}
	}
	if c.TotalQuantity != 1 {
		t.Fatalf("removed line still counted, total quantity %d", c.TotalQuantity)
	}
	want := decimal.RequireFromString("89.00")
	if !c.Cost.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, c.Cost.Subtotal)
	}
}

func TestApplyUpdateDelete(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant"))
	applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant"))

	if _, ok := applyUpdate(c, "v1", DirectionDelete); !ok {
		t.Fatal("expected line to be found")
	}
	if len(c.Lines) != 0 || c.TotalQuantity != 0 {
		t.Fatalf("delete left residue: %+v", c)
	}
	if !c.Cost.Subtotal.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", c.Cost.Subtotal)
	}
}

func TestApplyUpdateUnknownMerchandise(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	if _, ok := applyUpdate(c, "missing", DirectionIncrement); ok {
		t.Fatal("expected no match for unknown merchandise")
	}
}

func TestTotalsInvariantAcrossMutationSequence(t *testing.T) {
	c := &shopify.Cart{Lines: []shopify.Line{}}
	steps := []func(){
		func() { applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant")) },
		func() { applyAdd(c, testVariant("v2", "89.00"), testProduct("lune-ring")) },
		func() { applyAdd(c, testVariant("v1", "149.00"), testProduct("seine-pendant")) },
		func() { applyUpdate(c, "v2", DirectionIncrement) },
		func() { applyUpdate(c, "v1", DirectionDecrement) },
		func() { applyUpdate(c, "v2", DirectionDelete) },
	}
	for i, step := range steps {
		step()
		if c.TotalQuantity != sumQuantities(c) {
			t.Fatalf("after step %d: total quantity %d != sum of lines %d", i, c.TotalQuantity, sumQuantities(c))
		}
		expected := decimal.Zero
		for _, line := range c.Lines {
			expected = expected.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if !c.Cost.Subtotal.Equal(expected) {
			t.Fatalf("after step %d: subtotal %s != derived %s", i, c.Cost.Subtotal, expected)
		}
	}
}

func TestRecomputeTotalsKeepsLastKnownTax(t *testing.T) {
	c := &shopify.Cart{
		Lines: []shopify.Line{},
		Cost:  shopify.Cost{Tax: decimal.RequireFromString("5.00")},
	}
	applyAdd(c, testVariant("v1", "100.00"), testProduct("seine-pendant"))

	wantTotal := decimal.RequireFromString("105.00")
	if !c.Cost.Total.Equal(wantTotal) {
		t.Fatalf("expected total %s, got %s", wantTotal, c.Cost.Total)
	}
}
