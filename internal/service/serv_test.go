package service_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/payment"
	"github.com/linemk/food-delivery/internal/service"
	"github.com/linemk/food-delivery/internal/storage"
)

const gatewaySecret = "test_secret"

type fakeUserRepo struct {
	users       map[string]*models.User // ключ — id
	clearedCart []string
	getErr      error
	clearErr    error
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) ClearCartTx(ctx context.Context, tx *sql.Tx, id string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clearedCart = append(f.clearedCart, id)
	if user, ok := f.users[id]; ok {
		user.CartData = []byte(`{}`)
	}
	return nil
}

type fakeOrderRepo struct {
	orders    map[string]*models.Order // ключ — id заказа
	createErr error
	getErr    error
	updateErr error
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	stored := *order
	stored.ID = uuid.NewString()
	f.orders[stored.ID] = &stored
	return stored.ID, nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	orders := []*models.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	orders := []*models.Order{}
	for _, o := range f.orders {
		orders = append(orders, o)
	}
	return orders, nil
}

func (f *fakeOrderRepo) SetPaymentVerified(ctx context.Context, id string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.Payment = true
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	order, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

// fakeGateway запоминает запросы и считает подпись настоящим HMAC
type fakeGateway struct {
	requests    []payment.OrderRequest
	err         error
	verifyCalls int
}

func (f *fakeGateway) CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Order{ID: "order_GW1", Amount: req.Amount, Currency: req.Currency}, nil
}

func (f *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	f.verifyCalls++
	return payment.VerifySignature(gatewaySecret, gatewayOrderID, paymentID, signature)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newOrderService(t *testing.T, orders *fakeOrderRepo, users *fakeUserRepo, gw *fakeGateway) (service.OrderService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := service.NewOrderService(testLogger(), db, orders, users, gw, "INR", decimal.NewFromInt(2))
	return svc, mock
}

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	userID := uuid.NewString()
	users.users[userID] = &models.User{ID: userID, Role: "user", CartData: []byte(`{"food-1":3}`)}

	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: userID,
		Items: []models.Item{
			{Name: "Greek salad", Price: 10, Quantity: 2},
			{Name: "Veg rolls", Price: 5, Quantity: 1},
		},
		Amount:  999, // клиентская сумма не влияет на списание
		Address: models.Address{City: "Pune"},
	})
	require.NoError(t, err)

	assert.Equal(t, "order_GW1", res.GatewayOrderID)
	assert.Equal(t, "INR", res.Currency)
	assert.True(t, decimal.NewFromInt(27).Equal(res.Amount), "charge should be 10*2+5*1+2")

	// шлюз получил сумму в пайсах и id локального заказа как receipt
	require.Len(t, gw.requests, 1)
	assert.Equal(t, int64(2700), gw.requests[0].Amount)
	assert.Equal(t, "INR", gw.requests[0].Currency)
	assert.Equal(t, res.OrderID, gw.requests[0].Receipt)

	// заказ сохранён с клиентской суммой, без оплаты и без статуса
	stored, ok := orders.orders[res.OrderID]
	require.True(t, ok)
	assert.Equal(t, userID, stored.UserID)
	assert.Equal(t, 999.0, stored.Amount)
	assert.False(t, stored.Payment)
	assert.Empty(t, stored.Status)

	assert.Equal(t, []string{userID}, users.clearedCart)
	assert.Equal(t, `{}`, string(users.users[userID].CartData))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_UnknownUserStillPlaces(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{UserID: uuid.NewString()})
	require.NoError(t, err)
	// пустой список позиций — только доставка
	assert.True(t, decimal.NewFromInt(2).Equal(res.Amount))
	assert.Equal(t, int64(200), gw.requests[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_CreateError(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	orders.createErr = errors.New("insert failed")

	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin()
	mock.ExpectRollback()

	res, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{UserID: uuid.NewString()})
	assert.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, gw.requests, "gateway must not be called when the order was not saved")
	assert.Empty(t, users.clearedCart)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_ClearCartError(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	users.clearErr = errors.New("update failed")

	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{UserID: uuid.NewString()})
	assert.Error(t, err)
	assert.Empty(t, gw.requests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_BeginError(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin().WillReturnError(errors.New("db down"))

	_, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{UserID: uuid.NewString()})
	assert.Error(t, err)
	assert.Empty(t, orders.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_GatewayErrorLeavesOrphan(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{err: errors.New("gateway down")}
	svc, mock := newOrderService(t, orders, users, gw)
	mock.ExpectBegin()
	mock.ExpectCommit()

	res, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items:  []models.Item{{Price: 10, Quantity: 1}},
	})
	assert.Error(t, err)
	assert.Nil(t, res)

	// заказ уже закоммичен и остаётся неоплаченным
	require.Len(t, orders.orders, 1)
	for _, o := range orders.orders {
		assert.False(t, o.Payment)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderService_PlaceOrder_ChargeOutOfRange(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, mock := newOrderService(t, orders, users, gw)

	res, err := svc.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: uuid.NewString(),
		Items:  []models.Item{{Price: 1e17, Quantity: 1000}},
	})
	assert.ErrorIs(t, err, service.ErrChargeOutOfRange)
	assert.Nil(t, res)

	// ни транзакции, ни заказа, ни запроса в шлюз
	assert.Empty(t, orders.orders)
	assert.Empty(t, users.clearedCart)
	assert.Empty(t, gw.requests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func placedOrder(orders *fakeOrderRepo) string {
	id := uuid.NewString()
	orders.orders[id] = &models.Order{ID: id, UserID: uuid.NewString()}
	return id
}

func TestOrderService_VerifyPayment_Success(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, _ := newOrderService(t, orders, users, gw)
	id := placedOrder(orders)

	in := service.VerifyPaymentInput{
		OrderID:        id,
		PaymentID:      "pay_Qa9",
		GatewayOrderID: "order_Nx1",
		Signature:      payment.Sign(gatewaySecret, "order_Nx1", "pay_Qa9"),
	}
	require.NoError(t, svc.VerifyPayment(context.Background(), in))
	assert.True(t, orders.orders[id].Payment)

	// повторная проверка с теми же данными тоже успешна
	require.NoError(t, svc.VerifyPayment(context.Background(), in))
	assert.True(t, orders.orders[id].Payment)
}

func TestOrderService_VerifyPayment_NotFoundBeforeEverythingElse(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, _ := newOrderService(t, orders, users, gw)

	// валидная подпись не спасает несуществующий заказ
	err := svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{
		OrderID:        uuid.NewString(),
		PaymentID:      "pay_Qa9",
		GatewayOrderID: "order_Nx1",
		Signature:      payment.Sign(gatewaySecret, "order_Nx1", "pay_Qa9"),
	})
	assert.True(t, errors.Is(err, service.ErrOrderNotFound))

	// и пустые поля тоже дают NotFound, а не InvalidInput
	err = svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{OrderID: uuid.NewString()})
	assert.True(t, errors.Is(err, service.ErrOrderNotFound))

	err = svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{OrderID: "not-a-uuid"})
	assert.True(t, errors.Is(err, service.ErrOrderNotFound))

	assert.Equal(t, 0, gw.verifyCalls)
}

func TestOrderService_VerifyPayment_MissingDetails(t *testing.T) {
	tests := []struct {
		name string
		in   service.VerifyPaymentInput
	}{
		{"no payment id", service.VerifyPaymentInput{GatewayOrderID: "order_Nx1", Signature: "sig"}},
		{"no gateway order id", service.VerifyPaymentInput{PaymentID: "pay_Qa9", Signature: "sig"}},
		{"no signature", service.VerifyPaymentInput{PaymentID: "pay_Qa9", GatewayOrderID: "order_Nx1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
			svc, _ := newOrderService(t, orders, users, gw)
			tt.in.OrderID = placedOrder(orders)

			err := svc.VerifyPayment(context.Background(), tt.in)
			assert.True(t, errors.Is(err, service.ErrInvalidPaymentDetails))
			assert.Equal(t, 0, gw.verifyCalls, "signature must not be computed")
			assert.False(t, orders.orders[tt.in.OrderID].Payment)
		})
	}
}

func TestOrderService_VerifyPayment_SignatureMismatch(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, _ := newOrderService(t, orders, users, gw)
	id := placedOrder(orders)

	sig := payment.Sign(gatewaySecret, "order_Nx1", "pay_Qa9")
	last := "0"
	if sig[len(sig)-1] == '0' {
		last = "1"
	}

	err := svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{
		OrderID:        id,
		PaymentID:      "pay_Qa9",
		GatewayOrderID: "order_Nx1",
		Signature:      sig[:len(sig)-1] + last,
	})
	assert.True(t, errors.Is(err, service.ErrVerificationFailed))
	assert.False(t, orders.orders[id].Payment)
}

func TestOrderService_VerifyPayment_StoreError(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	orders.getErr = errors.New("db down")
	svc, _ := newOrderService(t, orders, users, gw)

	err := svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{OrderID: uuid.NewString()})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrOrderNotFound))
	assert.False(t, errors.Is(err, service.ErrInvalidPaymentDetails))
}

func TestOrderService_VerifyPayment_UpdateError(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, _ := newOrderService(t, orders, users, gw)
	id := placedOrder(orders)
	orders.updateErr = errors.New("db down")

	err := svc.VerifyPayment(context.Background(), service.VerifyPaymentInput{
		OrderID:        id,
		PaymentID:      "pay_Qa9",
		GatewayOrderID: "order_Nx1",
		Signature:      payment.Sign(gatewaySecret, "order_Nx1", "pay_Qa9"),
	})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrVerificationFailed))
}

func TestOrderService_UserOrders(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	svc, _ := newOrderService(t, orders, users, gw)

	userID := uuid.NewString()
	orders.orders["a"] = &models.Order{ID: "a", UserID: userID}
	orders.orders["b"] = &models.Order{ID: "b", UserID: userID}
	orders.orders["c"] = &models.Order{ID: "c", UserID: uuid.NewString()}

	list, err := svc.UserOrders(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, o := range list {
		assert.Equal(t, userID, o.UserID)
	}

	orders.getErr = errors.New("db down")
	_, err = svc.UserOrders(context.Background(), userID)
	assert.Error(t, err)
}

func TestOrderService_UserOrders_MalformedUserID(t *testing.T) {
	orders, users, gw := newFakeOrderRepo(), newFakeUserRepo(), &fakeGateway{}
	// хранилище не должно вызываться
	orders.getErr = errors.New("invalid input syntax for type uuid")
	svc, _ := newOrderService(t, orders, users, gw)

	list, err := svc.UserOrders(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Len(t, list, 0)
}

func newAdminFixture() (*fakeUserRepo, *fakeOrderRepo, service.AdminService) {
	users, orders := newFakeUserRepo(), newFakeOrderRepo()
	users.users["admin-1"] = &models.User{ID: "admin-1", Role: "admin"}
	users.users["user-1"] = &models.User{ID: "user-1", Role: "user"}
	users.users["shouty-1"] = &models.User{ID: "shouty-1", Role: "Admin"}
	return users, orders, service.NewAdminService(testLogger(), users, orders)
}

func TestAdminService_ListOrders_Admin(t *testing.T) {
	_, orders, svc := newAdminFixture()
	placedOrder(orders)
	placedOrder(orders)

	list, err := svc.ListOrders(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAdminService_ListOrders_RejectsNonAdmins(t *testing.T) {
	_, orders, svc := newAdminFixture()
	placedOrder(orders)

	for _, requester := range []string{"user-1", "shouty-1", "missing"} {
		list, err := svc.ListOrders(context.Background(), requester)
		assert.True(t, errors.Is(err, service.ErrNotAdmin), requester)
		assert.Nil(t, list)
	}
}

func TestAdminService_ListOrders_UserStoreError(t *testing.T) {
	users, _, svc := newAdminFixture()
	users.getErr = errors.New("db down")

	_, err := svc.ListOrders(context.Background(), "admin-1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrNotAdmin))
}

func TestAdminService_UpdateStatus_AnyString(t *testing.T) {
	_, orders, svc := newAdminFixture()
	id := placedOrder(orders)

	require.NoError(t, svc.UpdateStatus(context.Background(), "admin-1", id, "Out for delivery"))
	assert.Equal(t, "Out for delivery", orders.orders[id].Status)

	// набор статусов не ограничен
	require.NoError(t, svc.UpdateStatus(context.Background(), "admin-1", id, "banana"))
	assert.Equal(t, "banana", orders.orders[id].Status)
}

func TestAdminService_UpdateStatus_RejectsNonAdmins(t *testing.T) {
	_, orders, svc := newAdminFixture()
	id := placedOrder(orders)

	for _, requester := range []string{"user-1", "shouty-1", "missing"} {
		err := svc.UpdateStatus(context.Background(), requester, id, "Delivered")
		assert.True(t, errors.Is(err, service.ErrNotAdmin), requester)
	}
	assert.Empty(t, orders.orders[id].Status)
}

func TestAdminService_UpdateStatus_UnknownOrder(t *testing.T) {
	_, _, svc := newAdminFixture()

	err := svc.UpdateStatus(context.Background(), "admin-1", uuid.NewString(), "Delivered")
	assert.True(t, errors.Is(err, service.ErrOrderNotFound))

	err = svc.UpdateStatus(context.Background(), "admin-1", "42", "Delivered")
	assert.True(t, errors.Is(err, service.ErrOrderNotFound))
}
