package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestCreate_WritesOrderAndItemsInOneTransaction(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1-ABCDEF12",
		UserID:        uuid.New(),
		PaymentMethod: models.PaymentPayPal,
		Status:        models.StatusCreated,
		OrderItems: []models.OrderItem{
			{ProductID: "p1", Name: "Headphones", Quantity: 2, Price: 99.99},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(order.ID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), order))
	assert.Equal(t, order.ID, order.OrderItems[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollsBackWhenItemsFail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := &models.Order{ID: uuid.New(), OrderNumber: "ORD-2", UserID: uuid.New(), OrderItems: []models.OrderItem{{ProductID: "p1", Quantity: 1}}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(order.ID.String()))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	assert.Error(t, repo.Create(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_PreloadsItems(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "user_id", "status", "shipping_city", "total_price", "created_at"}).
			AddRow(id.String(), "ORD-3", uuid.NewString(), models.StatusPaid, "Austin", 118.0, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items" WHERE "order_items"."order_id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "name", "quantity", "price"}).
			AddRow(uuid.NewString(), id.String(), "p1", "Headphones", 1, 99.99))

	order, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Austin", order.ShippingAddress.City)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "p1", order.OrderItems[0].ProductID)
}

func TestFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByUserID_CountsThenPages(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders" WHERE user_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE user_id = $1 ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	orders, total, err := repo.FindByUserID(context.Background(), userID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, orders)
}

func TestTransition(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	now := time.Now()
	order := &models.Order{ID: uuid.New(), Status: models.StatusPaid, PaidAt: &now}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Transition(context.Background(), order, models.StatusCreated))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.Transition(context.Background(), order, models.StatusCreated), repository.ErrStaleStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
