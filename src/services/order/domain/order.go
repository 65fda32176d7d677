package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64
	CustomerID  int64
	OrderDate   time.Time
	TotalAmount decimal.Decimal
}

// LineItem is one product line of an order. Unit prices are taken from the caller as-is.
type LineItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderRequest struct {
	CustomerID int64
	Items      []LineItem
}

// OrderDraft is an order ready to be written: the request plus its computed total.
type OrderDraft struct {
	CustomerID  int64
	Items       []LineItem
	TotalAmount decimal.Decimal
}

func NewOrderDraft(req CreateOrderRequest) OrderDraft {
	return OrderDraft{
		CustomerID:  req.CustomerID,
		Items:       req.Items,
		TotalAmount: CalculateTotal(req.Items),
	}
}

// CalculateTotal returns the exact sum of quantity × unit price over items.
func CalculateTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
