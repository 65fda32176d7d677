package models

import (
	"encoding/json"
	"time"

	"go-order-service/src/services/order/domain"

	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	ProductID *int64           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required" swaggertype:"number"`
}

type OrderRequest struct {
	CustomerID *int64             `json:"customer_id" validate:"required"`
	Items      []OrderItemRequest `json:"order_items" validate:"required,dive"`
}

// ToDomain converts a validated request.
func (r OrderRequest) ToDomain() domain.CreateOrderRequest {
	items := make([]domain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.LineItem{
			ProductID: *item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: *item.UnitPrice,
		})
	}
	return domain.CreateOrderRequest{CustomerID: *r.CustomerID, Items: items}
}

type OrderResponse struct {
	OrderID     int64       `json:"order_id"`
	CustomerID  int64       `json:"customer_id"`
	OrderDate   time.Time   `json:"order_date"`
	TotalAmount json.Number `json:"total_amount" swaggertype:"number"`
}

func NewOrderResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		OrderDate:   order.OrderDate,
		TotalAmount: json.Number(order.TotalAmount.String()),
	}
}

func NewOrderListResponse(orders []domain.Order) []OrderResponse {
	response := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, NewOrderResponse(order))
	}
	return response
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
