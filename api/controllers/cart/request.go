package cart

import (
	"github.com/shopspring/decimal"

	cartcore "github.com/massaviva/massaviva-backend/internal/cart"
	pkgerrors "github.com/massaviva/massaviva-backend/pkg/errors"
)

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,min=1,max=64"`
	Name      string `json:"name" validate:"required,min=1,max=128"`
	UnitPrice string `json:"unitPrice" validate:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size" validate:"max=32"`
	Crust     string `json:"crust" validate:"max=32"`
	Notes     string `json:"notes" validate:"max=256"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func toLineItem(payload addItemRequest) (cartcore.LineItem, error) {
	price, err := decimal.NewFromString(payload.UnitPrice)
	if err != nil {
		return cartcore.LineItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price").
			WithDetails(map[string]string{"unitPrice": "must be a decimal amount"})
	}
	if price.IsNegative() {
		return cartcore.LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit price").
			WithDetails(map[string]string{"unitPrice": "must not be negative"})
	}

	return cartcore.LineItem{
		ID:        cartcore.LineID(payload.ProductID, payload.Size, payload.Crust, payload.Notes),
		Name:      payload.Name,
		UnitPrice: price,
		Quantity:  payload.Quantity,
		Size:      payload.Size,
		Crust:     payload.Crust,
		Notes:     payload.Notes,
		ImageURL:  payload.ImageURL,
	}, nil
}
