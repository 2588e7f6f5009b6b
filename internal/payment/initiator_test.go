package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	calls   atomic.Int32
	status  int
	body    string
	lastReq *http.Request
	request string // base64 payload of the last pay call
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.calls.Add(1)
	g.lastReq = r
	if r.Method == http.MethodPost {
		var body struct {
			Request string `json:"request"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		g.request = body.Request
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(g.status)
	_, _ = w.Write([]byte(g.body))
}

const okPayResponse = `{"success":true,"code":"PAYMENT_INITIATED","message":"Payment initiated",
"data":{"merchantId":"MID1","merchantTransactionId":"order-1-1","instrumentResponse":{"type":"PAY_PAGE",
"redirectInfo":{"url":"https://pay.example/checkout/abc","method":"GET"}}}}`

func newInitiator(t *testing.T, g *fakeGateway) *Initiator {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	in := NewInitiator(Config{
		MerchantID:      "MID1",
		SaltKey:         "salt-key",
		SaltIndex:       1,
		BaseURL:         srv.URL,
		CallbackBaseURL: "https://shop.example/",
	})
	in.nowFunc = func() time.Time { return time.UnixMilli(1700000000000) }
	return in
}

func payReq() validation.PaymentRequest {
	return validation.PaymentRequest{OrderID: "order-1", Name: "Asha Rao", Phone: "9876543210", Amount: 499.99}
}

func TestInitiate_Success(t *testing.T) {
	g := &fakeGateway{status: http.StatusOK, body: okPayResponse}
	in := newInitiator(t, g)

	res, err := in.Initiate(context.Background(), payReq())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout/abc", res.RedirectURL)
	assert.Equal(t, "order-1-1700000000000", res.MerchantTransactionID)
	assert.Equal(t, int64(49999), res.AmountMinor)

	require.EqualValues(t, 1, g.calls.Load())
	assert.Equal(t, PayPath, g.lastReq.URL.Path)
	assert.Equal(t, Checksum(g.request, PayPath, "salt-key", 1), g.lastReq.Header.Get("X-VERIFY"))

	raw, err := base64.StdEncoding.DecodeString(g.request)
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "MID1", payload["merchantId"])
	assert.Equal(t, "order-1-1700000000000", payload["merchantTransactionId"])
	assert.Equal(t, "MUID1700000000000", payload["merchantUserId"])
	assert.Equal(t, 49999.0, payload["amount"])
	assert.Equal(t, "9876543210", payload["mobileNumber"])
	assert.Equal(t, "POST", payload["redirectMode"])
	assert.Equal(t, "https://shop.example/api/status?id=order-1-1700000000000&order=order-1", payload["redirectUrl"])
	assert.Equal(t, payload["redirectUrl"], payload["callbackUrl"])
	assert.Equal(t, map[string]interface{}{"type": "PAY_PAGE"}, payload["paymentInstrument"])
}

func TestInitiate_ExplicitTransactionID(t *testing.T) {
	g := &fakeGateway{status: http.StatusOK, body: okPayResponse}
	req := payReq()
	req.OrderID = ""
	req.TransactionID = "custom-txn"

	res, err := newInitiator(t, g).Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "custom-txn", res.MerchantTransactionID)
}

func TestInitiate_ValidationBeforeNetwork(t *testing.T) {
	g := &fakeGateway{status: http.StatusOK, body: okPayResponse}
	in := newInitiator(t, g)

	cases := []struct {
		mutate func(*validation.PaymentRequest)
		field  string
	}{
		{func(r *validation.PaymentRequest) { r.Phone = "12345" }, "phone"},
		{func(r *validation.PaymentRequest) { r.Name = "" }, "name"},
		{func(r *validation.PaymentRequest) { r.Amount = 0 }, "amount"},
		{func(r *validation.PaymentRequest) { r.Amount = -5 }, "amount"},
		{func(r *validation.PaymentRequest) { r.Amount = 0.004 }, "amount"},
		{func(r *validation.PaymentRequest) { r.Amount = 1e17 }, "amount"},
	}
	for _, tc := range cases {
		req := payReq()
		tc.mutate(&req)
		_, err := in.Initiate(context.Background(), req)
		require.Error(t, err)
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindValidation, e.Kind)
		assert.Equal(t, tc.field, e.Field)
	}
	assert.EqualValues(t, 0, g.calls.Load(), "no gateway call for invalid input")

	_, err := in.Initiate(context.Background(), payReq())
	require.NoError(t, err, "10-digit phone passes")
}

func TestInitiate_UpstreamStatusPropagated(t *testing.T) {
	g := &fakeGateway{status: http.StatusBadRequest, body: `{"success":false,"code":"BAD_REQUEST","message":"Please check the inputs you have provided."}`}

	_, err := newInitiator(t, g).Initiate(context.Background(), payReq())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(err))
}

func TestInitiate_MissingRedirectIsHardError(t *testing.T) {
	g := &fakeGateway{status: http.StatusOK, body: `{"success":true,"code":"PAYMENT_INITIATED","data":{}}`}

	_, err := newInitiator(t, g).Initiate(context.Background(), payReq())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRedirect))
	assert.Equal(t, http.StatusBadGateway, apperr.HTTPStatus(err))
}

func TestInitiate_TransportFailureIs500(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	in := NewInitiator(Config{MerchantID: "MID1", SaltKey: "s", BaseURL: base, CallbackBaseURL: "http://x"})
	_, err := in.Initiate(context.Background(), payReq())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
}

func TestInitiate_NotConfigured(t *testing.T) {
	g := &fakeGateway{status: http.StatusOK, body: okPayResponse}
	srv := httptest.NewServer(g)
	defer srv.Close()

	in := NewInitiator(Config{MerchantID: "MID1", BaseURL: srv.URL})
	_, err := in.Initiate(context.Background(), payReq())
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.EqualValues(t, 0, g.calls.Load())
}
