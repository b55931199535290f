package cart

import (
	cartsvc "github.com/aurelle-jewelry/storefront-backend/internal/cart"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// AddItemRequest carries the variant and its product snapshot. The unit
// price arrives as a decimal string and is parsed exactly, never derived
// from a line total.
type AddItemRequest struct {
	MerchandiseID string `json:"merchandise_id" validate:"required"`
	UnitPrice     string `json:"unit_price" validate:"required"`
	CurrencyCode  string `json:"currency_code" validate:"required"`
	ProductID     string `json:"product_id"`
	Handle        string `json:"handle"`
	Title         string `json:"title"`
	ImageURL      string `json:"image_url"`
}

type UpdateItemRequest struct {
	MerchandiseID string `json:"merchandise_id" validate:"required"`
	Direction     string `json:"direction" validate:"required,oneof=increment decrement delete"`
}

func (req AddItemRequest) toVariant() (cartsvc.Variant, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return cartsvc.Variant{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
	}
	return cartsvc.Variant{
		MerchandiseID: req.MerchandiseID,
		UnitPrice:     price,
		CurrencyCode:  req.CurrencyCode,
	}, nil
}

func (req AddItemRequest) toProduct() cartsvc.Product {
	return cartsvc.Product{
		ID:       req.ProductID,
		Handle:   req.Handle,
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}
}
