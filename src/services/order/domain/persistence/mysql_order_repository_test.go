package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-order-service/src/services/order/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderColumns = []string{"order_id", "customer_id", "order_date", "total_amount"}

func newMockRepository(t *testing.T) (*MySQLOrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLOrderRepository(db), mock
}

func testDraft() domain.OrderDraft {
	return domain.NewOrderDraft(domain.CreateOrderRequest{
		CustomerID: 1,
		Items: []domain.LineItem{
			{ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
			{ProductID: 11, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	})
}

func TestMySQLOrderRepository_CreateOrder(t *testing.T) {
	ctx := context.Background()
	orderDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("commits order and items then reads back", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WithArgs(1, "24.98").
			WillReturnResult(sqlmock.NewResult(100, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrderItem)).WithArgs(100, 10, 2, "9.99").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrderItem)).WithArgs(100, 11, 1, "5").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(100).
			WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(100, 1, orderDate, "24.98"))

		order, err := repo.CreateOrder(ctx, testDraft())

		require.NoError(t, err)
		assert.Equal(t, int64(100), order.ID)
		assert.Equal(t, int64(1), order.CustomerID)
		assert.Equal(t, orderDate, order.OrderDate)
		assert.Equal(t, "24.98", order.TotalAmount.StringFixed(2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing customer rolls back without writes", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}))
		mock.ExpectRollback()

		_, err := repo.CreateOrder(ctx, testDraft())

		assert.True(t, domain.IsNotFound(err, domain.ResourceCustomer))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("item insert failure rolls back the order insert", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(100, 1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrderItem)).WithArgs(100, 10, 2, "9.99").
			WillReturnError(errors.New("foreign key constraint fails"))
		mock.ExpectRollback()

		_, err := repo.CreateOrder(ctx, testDraft())

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "insert order item", se.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty order stores a zero total", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WithArgs(1, "0").
			WillReturnResult(sqlmock.NewResult(101, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(101).
			WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(101, 1, orderDate, "0.00"))

		order, err := repo.CreateOrder(ctx, domain.NewOrderDraft(domain.CreateOrderRequest{CustomerID: 1}))

		require.NoError(t, err)
		assert.True(t, order.TotalAmount.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure is a storage error", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(102, 1))
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, err := repo.CreateOrder(ctx, domain.NewOrderDraft(domain.CreateOrderRequest{CustomerID: 1}))

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "create order", se.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read back failure after commit", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(103, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(103).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		_, err := repo.CreateOrder(ctx, domain.NewOrderDraft(domain.CreateOrderRequest{CustomerID: 1}))

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "read back order", se.Op)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, domain.IsNotFound(err, domain.ResourceOrder))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read back driver failure keeps the driver cause", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectCustomerShared)).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(insertOrder)).WillReturnResult(sqlmock.NewResult(104, 1))
		mock.ExpectCommit()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(104).WillReturnError(sql.ErrConnDone)

		_, err := repo.CreateOrder(ctx, domain.NewOrderDraft(domain.CreateOrderRequest{CustomerID: 1}))

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "read back order", se.Op)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMySQLOrderRepository_GetOrderByID(t *testing.T) {
	ctx := context.Background()
	orderDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(5).
			WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(5, 2, orderDate, "10.50"))

		order, err := repo.GetOrderByID(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(5), order.ID)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("10.5")))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(6).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		_, err := repo.GetOrderByID(ctx, 6)

		assert.True(t, domain.IsNotFound(err, domain.ResourceOrder))
	})

	t.Run("driver failure", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderByID)).WithArgs(7).WillReturnError(sql.ErrConnDone)

		_, err := repo.GetOrderByID(ctx, 7)

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestMySQLOrderRepository_ListOrders(t *testing.T) {
	ctx := context.Background()
	orderDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("rows", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrders)).WillReturnRows(
			sqlmock.NewRows(orderColumns).
				AddRow(1, 1, orderDate, "24.98").
				AddRow(2, 3, orderDate, "0.00"))

		orders, err := repo.ListOrders(ctx)

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, int64(3), orders[1].CustomerID)
	})

	t.Run("empty table yields empty list", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrders)).WillReturnRows(sqlmock.NewRows(orderColumns))

		orders, err := repo.ListOrders(ctx)

		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})

	t.Run("query failure", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectOrders)).WillReturnError(errors.New("server has gone away"))

		_, err := repo.ListOrders(ctx)

		var se *domain.StorageError
		assert.ErrorAs(t, err, &se)
	})
}

func TestMySQLOrderRepository_DeleteOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes items then order", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderForUpdate)).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(9))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrderItems)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrder)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteOrder(ctx, 9))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing order issues no delete", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderForUpdate)).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
		mock.ExpectRollback()

		err := repo.DeleteOrder(ctx, 9)

		assert.True(t, domain.IsNotFound(err, domain.ResourceOrder))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order delete failure rolls back item delete", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderForUpdate)).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(9))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrderItems)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrder)).WithArgs(9).WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		err := repo.DeleteOrder(ctx, 9)

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "delete order", se.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected is not found", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(selectOrderForUpdate)).WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(9))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrderItems)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(deleteOrder)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.DeleteOrder(ctx, 9), domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
