package cart

import (
	cartcore "github.com/massaviva/massaviva-backend/internal/cart"
)

type lineView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Crust     string `json:"crust,omitempty"`
	Notes     string `json:"notes,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Subtotal  string `json:"subtotal"`
}

type cartView struct {
	Items []lineView `json:"items"`
	Count int        `json:"count"`
	Total string     `json:"total"`
}

func newCartView(items []cartcore.LineItem) cartView {
	views := make([]lineView, 0, len(items))
	count := 0
	for _, item := range items {
		count += item.Quantity
		views = append(views, lineView{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Crust:     item.Crust,
			Notes:     item.Notes,
			ImageURL:  item.ImageURL,
			Subtotal:  item.Subtotal().StringFixed(2),
		})
	}
	return cartView{
		Items: views,
		Count: count,
		Total: cartcore.Total(items).StringFixed(2),
	}
}
