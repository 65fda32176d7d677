package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-order-service/src/infrastructure/mysql"
	"go-order-service/src/services/order/domain"
)

const (
	selectOrders         = "SELECT order_id, customer_id, order_date, total_amount FROM orders"
	selectOrderByID      = selectOrders + " WHERE order_id = ?"
	selectCustomerShared = "SELECT customer_id FROM customers WHERE customer_id = ? LOCK IN SHARE MODE"
	insertOrder          = "INSERT INTO orders (customer_id, total_amount) VALUES (?, ?)"
	insertOrderItem      = "INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)"
	selectOrderForUpdate = "SELECT order_id FROM orders WHERE order_id = ? FOR UPDATE"
	deleteOrderItems     = "DELETE FROM order_items WHERE order_id = ?"
	deleteOrder          = "DELETE FROM orders WHERE order_id = ?"
)

// MySQLOrderRepository stores orders and their items in MySQL.
type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrders)
	if err != nil {
		return nil, &domain.StorageError{Op: "list orders", Err: err}
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.OrderDate, &order.TotalAmount); err != nil {
			return nil, &domain.StorageError{Op: "scan order", Err: err}
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list orders", Err: err}
	}
	return orders, nil
}

func (r *MySQLOrderRepository) GetOrderByID(ctx context.Context, orderID int64) (domain.Order, error) {
	var order domain.Order
	err := r.db.QueryRowContext(ctx, selectOrderByID, orderID).
		Scan(&order.ID, &order.CustomerID, &order.OrderDate, &order.TotalAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, &domain.NotFoundError{Resource: domain.ResourceOrder, ID: orderID}
		}
		return domain.Order{}, &domain.StorageError{Op: "get order", Err: err}
	}
	return order, nil
}

// CreateOrder writes the order row and one row per item in a single transaction, after
// checking that the customer exists. The committed order is read back so the caller sees
// the id and order date assigned by the database.
func (r *MySQLOrderRepository) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	var orderID int64
	err := mysql.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		var customerID int64
		err := tx.QueryRowContext(ctx, selectCustomerShared, draft.CustomerID).Scan(&customerID)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Resource: domain.ResourceCustomer, ID: draft.CustomerID}
		}
		if err != nil {
			return &domain.StorageError{Op: "check customer", Err: err}
		}

		res, err := tx.ExecContext(ctx, insertOrder, draft.CustomerID, draft.TotalAmount)
		if err != nil {
			return &domain.StorageError{Op: "insert order", Err: err}
		}
		orderID, err = res.LastInsertId()
		if err != nil {
			return &domain.StorageError{Op: "insert order", Err: err}
		}

		for _, item := range draft.Items {
			if _, err := tx.ExecContext(ctx, insertOrderItem, orderID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
				return &domain.StorageError{Op: "insert order item", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, storageError("create order", err)
	}

	order, err := r.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, readBackError(orderID, err)
	}
	return order, nil
}

// readBackError reports a failed read of a committed order as a storage fault. A missing
// row must not surface as a not-found kind, so only the driver cause is kept.
func readBackError(orderID int64, err error) error {
	var se *domain.StorageError
	if errors.As(err, &se) {
		err = se.Err
	} else if errors.Is(err, domain.ErrNotFound) {
		err = fmt.Errorf("order %d missing after commit", orderID)
	}
	return &domain.StorageError{Op: "read back order", Err: err}
}

// DeleteOrder removes the order's items and then the order in one transaction. A missing
// order is reported before any delete is issued.
func (r *MySQLOrderRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	err := mysql.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, selectOrderForUpdate, orderID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Resource: domain.ResourceOrder, ID: orderID}
		}
		if err != nil {
			return &domain.StorageError{Op: "lock order", Err: err}
		}

		if _, err := tx.ExecContext(ctx, deleteOrderItems, orderID); err != nil {
			return &domain.StorageError{Op: "delete order items", Err: err}
		}
		res, err := tx.ExecContext(ctx, deleteOrder, orderID)
		if err != nil {
			return &domain.StorageError{Op: "delete order", Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return &domain.StorageError{Op: "delete order", Err: err}
		}
		if affected == 0 {
			return &domain.NotFoundError{Resource: domain.ResourceOrder, ID: orderID}
		}
		return nil
	})
	if err != nil {
		return storageError("delete order", err)
	}
	return nil
}

// storageError keeps domain error kinds and wraps transaction begin and commit failures.
func storageError(op string, err error) error {
	var se *domain.StorageError
	if errors.Is(err, domain.ErrNotFound) || errors.As(err, &se) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}
