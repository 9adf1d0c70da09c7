package services

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testB2PConfig(baseURL string) Best2PayConfig {
	return Best2PayConfig{
		Sector:          "1234",
		Secret:          "test",
		BaseURL:         baseURL,
		SuccessRedirect: "http://klio.test/order/{orderId}/success",
		FailRedirect:    "http://klio.test/order/{orderId}/fail",
	}
}

func TestBest2PayClient_Signature(t *testing.T) {
	client := NewBest2PayClient(testB2PConfig("http://b2p.test")).(*best2PayClient)

	sum := md5.Sum([]byte("1234" + "10000" + "643" + "test"))
	want := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
	assert.Equal(t, want, client.Signature("10000", "643"))
}

func TestBest2PayClient_Register(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webapi/Register", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><order><id>7788</id><state>REGISTERED</state></order>`))
	}))
	defer srv.Close()

	client := NewBest2PayClient(testB2PConfig(srv.URL + "/webapi/"))
	resp, err := client.Register(context.Background(), RegisterRequest{Amount: 12550, Reference: "order-1", Description: "Заказ order-1"})
	require.NoError(t, err)
	assert.Equal(t, "7788", resp.ID)
	assert.Equal(t, "REGISTERED", resp.State)

	assert.Equal(t, "1234", form.Get("sector"))
	assert.Equal(t, "12550", form.Get("amount"))
	assert.Equal(t, CurrencyRUB, form.Get("currency"))
	assert.Equal(t, "order-1", form.Get("reference"))
	assert.Equal(t, "http://klio.test/order/order-1/success", form.Get("url"))
	assert.Equal(t, "http://klio.test/order/order-1/fail", form.Get("failurl"))
	assert.Equal(t, client.(*best2PayClient).Signature("12550", CurrencyRUB), form.Get("signature"))

	authorize, err := url.Parse(client.AuthorizeURL("7788"))
	require.NoError(t, err)
	assert.Equal(t, "/webapi/Authorize", authorize.Path)
	assert.Equal(t, "7788", authorize.Query().Get("id"))
}

func TestBest2PayClient_RegisterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<error><code>109</code><description>Invalid signature</description></error>`))
	}))
	defer srv.Close()

	_, err := NewBest2PayClient(testB2PConfig(srv.URL)).Register(context.Background(), RegisterRequest{Amount: 100, Reference: "x"})
	var gwErr *Best2PayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "109", gwErr.Code)
	assert.Equal(t, "Invalid signature", gwErr.Description)
}

type stubGateway struct {
	calls []RegisterRequest
	err   error
}

func (g *stubGateway) Register(_ context.Context, req RegisterRequest) (*RegisterResponse, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &RegisterResponse{ID: "b2p-1", State: "REGISTERED"}, nil
}

func (g *stubGateway) AuthorizeURL(id string) string {
	return "http://b2p.test/Authorize?id=" + id
}

// pendingOrder walks an anonymous basket through checkout with courier
// delivery to the home city.
func pendingOrder(t *testing.T, s *shop) *models.Order {
	t.Helper()
	ctx := context.Background()
	drill := seedProduct(t, s.db, s.cat, "Drill", "125.50")
	_, err := s.baskets.Add(ctx, anon, drill.ID, 2)
	require.NoError(t, err)
	_, err = s.checkout.Create(ctx, anon)
	require.NoError(t, err)
	_, err = s.checkout.CreateDeliveryInfo(ctx, anon, &models.OrderDeliveryInfo{
		Type: models.DeliveryCourier, ToCityID: ptr("moscow"), ToAddress: "Arbat 2", DeliveryTerms: true, MoscowTerms: true,
	})
	require.NoError(t, err)
	order, err := s.checkout.ToPending(ctx, anon)
	require.NoError(t, err)
	return order
}

func TestPaymentService_RedirectURL(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	gw := &stubGateway{}
	payments := NewPaymentService(s.db, s.orders, gw)
	order := pendingOrder(t, s)

	_, err := payments.RedirectURL(ctx, repositories.Owner{SessionKey: "someone-else"}, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	link, err := payments.RedirectURL(ctx, anon, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://b2p.test/Authorize?id=b2p-1", link)
	require.Len(t, gw.calls, 1)
	// 2 x 125.50 + 300 delivery, in kopecks
	assert.Equal(t, int64(55100), gw.calls[0].Amount)
	assert.Equal(t, order.ID, gw.calls[0].Reference)

	again, err := payments.RedirectURL(ctx, anon, order.ID)
	require.NoError(t, err)
	assert.Equal(t, link, again)
	assert.Len(t, gw.calls, 1)
}

func TestPaymentService_RedirectURLGatewayFailure(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	gw := &stubGateway{err: &Best2PayError{Code: "133", Description: "Sector is blocked"}}
	payments := NewPaymentService(s.db, s.orders, gw)
	order := pendingOrder(t, s)

	_, err := payments.RedirectURL(ctx, anon, order.ID)
	var detail *DetailError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, http.StatusBadGateway, detail.Status)
	assert.Equal(t, "Sector is blocked", detail.Detail)

	stored, err := s.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentInfo)
	require.NotNil(t, stored.PaymentInfo.B2P)
	assert.Equal(t, models.B2PStatusFailed, stored.PaymentInfo.B2P.Status)
	assert.Contains(t, stored.PaymentInfo.B2P.RegisterError, "Sector is blocked")

	gw.err = errors.New("connection refused")
	_, err = payments.RedirectURL(ctx, anon, order.ID)
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, "Payment gateway is unavailable.", detail.Detail)
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	payments := NewPaymentService(s.db, s.orders, &stubGateway{})
	order := pendingOrder(t, s)

	_, err := payments.UpdateStatus(ctx, anon, order.ID, StatusUpdate{Status: models.B2PStatusSuccess})
	assert.ErrorIs(t, err, ErrB2PNotFound)

	_, err = payments.RedirectURL(ctx, anon, order.ID)
	require.NoError(t, err)

	_, err = payments.UpdateStatus(ctx, anon, order.ID, StatusUpdate{Status: "paid"})
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "status")

	b2p, err := payments.UpdateStatus(ctx, anon, order.ID, StatusUpdate{Status: models.B2PStatusSuccess, Operation: 42, ResultCode: 1})
	require.NoError(t, err)
	assert.Equal(t, "42", b2p.LastOperationNumber)
	assert.Equal(t, "1", b2p.LastOperationCode)

	stored, err := s.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)

	_, err = payments.UpdateStatus(ctx, anon, order.ID, StatusUpdate{Status: models.B2PStatusFailed})
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}
