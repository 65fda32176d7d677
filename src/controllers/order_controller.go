package controllers

import (
	"errors"
	"strconv"

	"go-order-service/src/controllers/models"
	"go-order-service/src/services/events"
	"go-order-service/src/services/order/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type OrderController struct {
	domain.OrderService
	validate *validator.Validate
}

func NewOrderController(orderService domain.OrderService) *OrderController {
	return &OrderController{
		OrderService: orderService,
		validate:     newValidator(),
	}
}

func (c *OrderController) Route(app *fiber.App) {
	api := app.Group("/orders")
	api.Get("/", c.ListOrders)
	api.Post("/", c.CreateOrder)
	api.Get("/:id", c.GetOrder)
	api.Delete("/:id", c.DeleteOrder)
	api.Get("/:id/events", c.GetOrderEvents)
}

// ListOrders godoc
// @Summary      List orders
// @Description  Returns every order in storage order
// @Tags         orders
// @Produce      json
// @Success      200  {array}   models.OrderResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /orders [get]
func (c *OrderController) ListOrders(ctx *fiber.Ctx) error {
	orders, err := c.OrderService.ListOrders(ctx.UserContext())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(models.NewOrderListResponse(orders))
}

// GetOrder godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  models.OrderResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      422  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /orders/{id} [get]
func (c *OrderController) GetOrder(ctx *fiber.Ctx) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return err
	}
	order, err := c.OrderService.GetOrder(ctx.UserContext(), orderID)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(models.NewOrderResponse(order))
}

// CreateOrder godoc
// @Summary      Create a new order
// @Description  Checks the customer, computes the total and stores the order with its items in one transaction
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      models.OrderRequest  true  "Order payload"
// @Success      200    {object}  models.OrderResponse
// @Failure      404    {object}  models.ErrorResponse
// @Failure      422    {object}  models.ErrorResponse
// @Failure      500    {object}  models.ErrorResponse
// @Router       /orders [post]
func (c *OrderController) CreateOrder(ctx *fiber.Ctx) error {
	var request models.OrderRequest
	if err := ctx.BodyParser(&request); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.validate.Struct(request); err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Details: validationDetails(err),
		})
	}

	order, err := c.OrderService.CreateOrder(ctx.UserContext(), request.ToDomain())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(models.NewOrderResponse(order))
}

// DeleteOrder godoc
// @Summary      Delete an order
// @Description  Deletes the order and its items in one transaction
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      422  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /orders/{id} [delete]
func (c *OrderController) DeleteOrder(ctx *fiber.Ctx) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return err
	}
	if err := c.OrderService.DeleteOrder(ctx.UserContext(), orderID); err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(models.MessageResponse{Message: "Order deleted successfully"})
}

// GetOrderEvents godoc
// @Summary      List order lifecycle events
// @Description  Returns the recorded events of an order, oldest first
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {array}   events.EventRecord
// @Failure      422  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Failure      503  {object}  models.ErrorResponse
// @Router       /orders/{id}/events [get]
func (c *OrderController) GetOrderEvents(ctx *fiber.Ctx) error {
	orderID, err := orderIDParam(ctx)
	if err != nil {
		return err
	}
	records, err := c.OrderService.GetOrderEvents(ctx.UserContext(), orderID)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(records)
}

func orderIDParam(ctx *fiber.Ctx) (int64, error) {
	orderID, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnprocessableEntity, "Invalid order id")
	}
	return orderID, nil
}

// writeError maps domain error kinds to responses. Storage details stay in the logs.
func writeError(ctx *fiber.Ctx, err error) error {
	switch {
	case domain.IsNotFound(err, domain.ResourceCustomer):
		return ctx.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Customer not found"})
	case domain.IsNotFound(err, domain.ResourceOrder):
		return ctx.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "Order not found"})
	case errors.Is(err, events.ErrEventLogDisabled):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{Error: "Order event log is not configured"})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Internal server error"})
	}
}
