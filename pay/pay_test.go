package pay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"freshcart/db"
	"freshcart/errs"
	"freshcart/models"
	"freshcart/mq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sigOrderABCPay123 = "736611b8dad354effe739c1c46a4bc6349de125fc546d558d460babb6df7fbab"

type memStore struct {
	mu           sync.Mutex
	orders       map[string]*models.Order
	payments     map[string]*models.Payment
	failInsert   bool
	orderUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[string]*models.Order{
			"o1": {ID: "o1", OrderID: "ORD-1-1", User: "A", Status: models.StatusPaymentPending, PaymentStatus: models.PaymentPending},
		},
		payments: map[string]*models.Payment{},
	}
}

func (m *memStore) FindByRef(_ context.Context, ref string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == ref || o.OrderID == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) Update(_ context.Context, match db.OrderMatch, upd db.OrderUpdate) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(match, upd), nil
}

func (m *memStore) update(match db.OrderMatch, upd db.OrderUpdate) *models.Order {
	o, ok := m.orders[match.Ref]
	if !ok || (len(match.FromStatus) > 0 && !slices.Contains(match.FromStatus, o.Status)) {
		return nil
	}
	m.orderUpdates++
	o.Status = *upd.Status
	o.PaymentStatus = *upd.PaymentStatus
	o.RazorpayPaymentID = upd.RazorpayPaymentID
	cp := *o
	return &cp
}

func (m *memStore) FindByGatewayPaymentID(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id], nil
}

// Confirm mimics the non-transactional path: order first, then payment.
func (m *memStore) Confirm(_ context.Context, match db.OrderMatch, upd db.OrderUpdate, pay *models.Payment) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.update(match, upd)
	if o == nil {
		return nil, nil
	}
	if m.failInsert {
		return nil, fmt.Errorf("insert payment: connection reset")
	}
	if _, dup := m.payments[pay.RazorpayPaymentID]; dup {
		return nil, errs.E(errs.Conflict, "payment already recorded")
	}
	m.payments[pay.RazorpayPaymentID] = pay
	return o, nil
}

type stubGateway struct {
	got GatewayOrderRequest
	err error
}

func (g *stubGateway) CreateOrder(_ context.Context, req GatewayOrderRequest) (*models.GatewayOrder, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	return &models.GatewayOrder{ID: "order_abc", Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt}, nil
}

var (
	owner    = &models.Account{ID: "A", Role: models.RoleCustomer}
	stranger = &models.Account{ID: "B", Role: models.RoleCustomer}
	admin    = &models.Account{ID: "X", Role: models.RoleAdmin}
)

func newTestService(store *memStore, gw Gateway) *Service {
	n := 0
	return NewService(gw, store, store, "S", func() string { n++; return fmt.Sprintf("pay-%d", n) })
}

func validVerify() VerifyInput {
	return VerifyInput{
		OrderID:           "ORD-1-1",
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: sigOrderABCPay123,
		Amount:            130,
	}
}

func TestSignatureVector(t *testing.T) {
	assert.Equal(t, sigOrderABCPay123, Signature([]byte("S"), "order_abc", "pay_123"))
}

func TestVerifyPaymentConfirmsOrder(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubGateway{})

	payment, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRecordCompleted, payment.Status)
	assert.Equal(t, "o1", payment.Order)
	assert.Equal(t, "A", payment.User)
	assert.Equal(t, "order_abc", payment.RazorpayOrderID)

	o := store.orders["o1"]
	assert.Equal(t, models.StatusOrderConfirmed, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	require.NotNil(t, o.RazorpayPaymentID)
	assert.Equal(t, "pay_123", *o.RazorpayPaymentID)
}

func TestVerifyPaymentRejectsTamperedSignature(t *testing.T) {
	for i := range sigOrderABCPay123 {
		tampered := []byte(sigOrderABCPay123)
		if tampered[i] == 'a' {
			tampered[i] = 'b'
		} else {
			tampered[i] = 'a'
		}

		store := newMemStore()
		svc := newTestService(store, &stubGateway{})
		in := validVerify()
		in.RazorpaySignature = string(tampered)

		_, err := svc.VerifyPayment(context.Background(), owner, in)
		require.True(t, errs.Has(err, errs.InvalidSignature), "position %d", i)
		assert.Equal(t, models.StatusPaymentPending, store.orders["o1"].Status)
		assert.Zero(t, store.orderUpdates)
		assert.Empty(t, store.payments)
	}
}

func TestVerifyPaymentValidation(t *testing.T) {
	svc := newTestService(newMemStore(), &stubGateway{})

	in := validVerify()
	in.RazorpayPaymentID = ""
	_, err := svc.VerifyPayment(context.Background(), owner, in)
	assert.True(t, errs.Has(err, errs.ValidationError))

	in = validVerify()
	in.Amount = 0
	_, err = svc.VerifyPayment(context.Background(), owner, in)
	assert.True(t, errs.Has(err, errs.ValidationError))
}

func TestVerifyPaymentOrderVisibility(t *testing.T) {
	svc := newTestService(newMemStore(), &stubGateway{})

	_, err := svc.VerifyPayment(context.Background(), stranger, validVerify())
	assert.True(t, errs.Has(err, errs.OrderNotFound))

	in := validVerify()
	in.OrderID = "ORD-9-9"
	_, err = svc.VerifyPayment(context.Background(), owner, in)
	assert.True(t, errs.Has(err, errs.OrderNotFound))

	_, err = svc.VerifyPayment(context.Background(), admin, validVerify())
	assert.NoError(t, err)
}

func TestVerifyPaymentReplayIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubGateway{})

	first, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	second, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.payments, 1)
}

func TestVerifyPaymentReplayRepairsPartialFailure(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubGateway{})

	store.failInsert = true
	_, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.Error(t, err)
	assert.Empty(t, store.payments)

	store.failInsert = false
	payment, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	assert.Equal(t, store.payments["pay_123"], payment)
	assert.Equal(t, models.PaymentPaid, store.orders["o1"].PaymentStatus)
}

func TestCreateGatewayOrder(t *testing.T) {
	gw := &stubGateway{}
	svc := newTestService(newMemStore(), gw)
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	order, err := svc.CreateGatewayOrder(context.Background(), 199.99, "")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(19999), gw.got.Amount)
	assert.Equal(t, "INR", gw.got.Currency)
	assert.Equal(t, "receipt_order_1700000000123", gw.got.Receipt)

	_, err = svc.CreateGatewayOrder(context.Background(), 0, "INR")
	assert.True(t, errs.Has(err, errs.ValidationError))

	gw.err = errs.E(errs.GatewayUnavailable, "down")
	_, err = svc.CreateGatewayOrder(context.Background(), 10, "INR")
	assert.True(t, errs.Has(err, errs.GatewayUnavailable))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(13000), MinorUnits(130))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
	assert.Equal(t, int64(29), MinorUnits(0.285))
}

func TestRazorpayClient(t *testing.T) {
	var gotAuth string
	var gotBody GatewayOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"order_abc","entity":"order","amount":13000,"amount_paid":0,"amount_due":13000,"currency":"INR","receipt":"r1","status":"created"}`)
	}))
	defer srv.Close()

	c := NewRazorpayClient(srv.URL, "key", "secret", time.Second)
	order, err := c.CreateOrder(context.Background(), GatewayOrderRequest{Amount: 13000, Currency: "INR", Receipt: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(13000), order.AmountDue)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("key:secret")), gotAuth)
	assert.Equal(t, int64(13000), gotBody.Amount)
}

func TestRazorpayClientFailures(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR"}}`)
	}))
	defer rejecting.Close()
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer empty.Close()
	gone := httptest.NewServer(http.NotFoundHandler())
	gone.Close()

	for _, url := range []string{rejecting.URL, empty.URL, gone.URL} {
		c := NewRazorpayClient(url, "key", "secret", time.Second)
		_, err := c.CreateOrder(context.Background(), GatewayOrderRequest{Amount: 100, Currency: "INR"})
		assert.True(t, errs.Has(err, errs.GatewayUnavailable), url)
	}
}

type paidEvents []mq.OrderEvent

func (p *paidEvents) Emit(_ context.Context, evt mq.OrderEvent) { *p = append(*p, evt) }

func TestVerifyPaymentEmitsOrderPaidOnce(t *testing.T) {
	store := newMemStore()
	var sink paidEvents
	svc := newTestService(store, &stubGateway{}).WithEvents(&sink)

	_, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	_, err = svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)

	require.Len(t, sink, 1)
	assert.Equal(t, mq.OrderPaid, sink[0].Type)
	assert.Equal(t, models.PaymentPaid, sink[0].PaymentStatus)
}

func TestVerifyPaymentLeavesSettledOrdersAlone(t *testing.T) {
	for _, status := range []string{
		models.StatusShipped,
		models.StatusDelivered,
		models.StatusCancelledByUser,
		models.StatusCancelledByAdmin,
	} {
		t.Run(status, func(t *testing.T) {
			store := newMemStore()
			store.orders["o1"].Status = status
			svc := newTestService(store, &stubGateway{})

			_, err := svc.VerifyPayment(context.Background(), owner, validVerify())
			assert.Equal(t, errs.InvalidTransition, errs.KindOf(err))
			assert.Equal(t, status, store.orders["o1"].Status)
			assert.Equal(t, models.PaymentPending, store.orders["o1"].PaymentStatus)
			assert.Empty(t, store.payments)
		})
	}
}

func TestVerifyPaymentReplayAfterDelivery(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubGateway{})

	first, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	store.orders["o1"].Status = models.StatusDelivered

	again, err := svc.VerifyPayment(context.Background(), owner, validVerify())
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.StatusDelivered, store.orders["o1"].Status)
	assert.Equal(t, models.PaymentPaid, store.orders["o1"].PaymentStatus)
}
