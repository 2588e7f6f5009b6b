package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/money"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/payment"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// Metric names emitted by the payment routes.
const (
	MetricPaymentInitiated        = "PaymentInitiated"
	MetricPaymentInitiationFailed = "PaymentInitiationFailed"
	MetricPaymentSucceeded        = "PaymentSucceeded"
	MetricPaymentFailed           = "PaymentFailed"
)

type paymentHandler struct {
	initiator *payment.Initiator
	receiver  *payment.StatusReceiver
	orders    *orders.Histories
	store     *orders.Store
	idem      *idempotency.Store
	publisher *aws.Publisher
	metrics   *aws.Metrics
	public    string
}

type initiateResponse struct {
	Success bool `json:"success"`
	*payment.Initiation
}

// initiate starts a payment and returns the gateway's hosted page URL. A repeated
// Idempotency-Key replays the first response instead of starting another attempt. Orders
// known to this service are charged their own total.
func (h *paymentHandler) initiate(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := c.GetRawData()
	if err != nil {
		apperr.Respond(c, apperr.Validation("", "could not read request body"))
		return
	}
	var req validation.PaymentRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		apperr.Respond(c, apperr.Validation("", "invalid request body"))
		return
	}
	if err := h.priceFromOrder(c, &req); err != nil {
		apperr.Respond(c, err)
		return
	}

	key := ""
	if h.idem != nil {
		key = c.GetHeader(IdempotencyHeader)
	}
	if key != "" {
		hash := idempotency.Fingerprint(raw)
		rec, created, err := h.idem.Begin(ctx, key, req.OrderID, hash)
		if err != nil {
			apperr.Respond(c, apperr.Internal("idempotency check", err))
			return
		}
		if !created {
			replay(c, rec, hash)
			return
		}
	}

	started, err := h.initiator.Initiate(ctx, req)
	if err != nil {
		if key != "" {
			if merr := h.idem.MarkFailed(ctx, key, err.Error()); merr != nil {
				log.Printf("[idempotency] mark failed key=%s: %v", key, merr)
			}
		}
		h.count(ctx, MetricPaymentInitiationFailed)
		apperr.Respond(c, err)
		return
	}

	if h.store != nil && req.OrderID != "" {
		if err := h.store.RecordPayment(ctx, req.OrderID, started.MerchantTransactionID); err != nil && !errors.Is(err, orders.ErrNotFound) {
			log.Printf("[payment] record attempt order=%s txn=%s: %v", req.OrderID, started.MerchantTransactionID, err)
		}
	}
	h.count(ctx, MetricPaymentInitiated)
	finish(c, h.idem, key, http.StatusOK, initiateResponse{Success: true, Initiation: started})
}

// status is where the gateway sends the shopper back. The browser is redirected to the
// storefront's success or failure page; only precondition failures answer with JSON.
func (h *paymentHandler) status(c *gin.Context) {
	ctx := c.Request.Context()
	txn, orderID := c.Query("id"), c.Query("order")

	res, err := h.receiver.Check(ctx, txn)
	if err != nil {
		if apperr.IsKind(err, apperr.KindValidation) || errors.Is(err, payment.ErrNotConfigured) {
			apperr.Respond(c, err)
			return
		}
		log.Printf("[payment] status check txn=%s: %v", txn, err)
		h.count(ctx, MetricPaymentFailed)
		c.Redirect(http.StatusMovedPermanently, h.public+"/failed")
		return
	}

	h.publish(ctx, orderID, res)
	if res.Success {
		h.count(ctx, MetricPaymentSucceeded)
		c.Redirect(http.StatusMovedPermanently, h.public+"/success")
		return
	}
	h.count(ctx, MetricPaymentFailed)
	c.Redirect(http.StatusMovedPermanently, h.public+"/failed")
}

// publish hands the verdict to the worker. orderID comes from the callback URL; the worker
// only trusts it when the order's last recorded attempt is this transaction.
func (h *paymentHandler) publish(ctx context.Context, orderID string, res *payment.Result) {
	if h.publisher == nil {
		return
	}
	ev := aws.PaymentEvent{
		OrderID:               orderID,
		MerchantTransactionID: res.MerchantTransactionID,
		Success:               res.Success,
		State:                 res.State,
		Code:                  res.Code,
		ProviderTransactionID: res.ProviderTransactionID,
		AmountMinor:           res.AmountMinor,
	}
	if err := h.publisher.PublishPaymentEvent(ctx, ev); err != nil {
		log.Printf("[payment] publish event txn=%s: %v", res.MerchantTransactionID, err)
	}
}

// priceFromOrder makes a known order's total the amount to charge. An omitted amount is
// filled in from the order and a different one is refused. Orders this service does not
// hold keep the amount the client sent.
func (h *paymentHandler) priceFromOrder(c *gin.Context, req *validation.PaymentRequest) error {
	if req.OrderID == "" {
		return nil
	}
	due, ok, err := h.amountDue(c, req.OrderID)
	if err != nil || !ok {
		return err
	}
	if req.Amount == 0 {
		req.Amount, _ = money.FromMinor(due).Float64()
		return nil
	}
	if sent, err := money.FloatToMinor(req.Amount); err != nil || sent != due {
		return apperr.Validation("amount", "amount must equal the order total "+money.FromMinor(due).StringFixed(2))
	}
	return nil
}

// amountDue looks the order up in the caller's session history, then in the durable store.
func (h *paymentHandler) amountDue(c *gin.Context, orderID string) (int64, bool, error) {
	if session := strings.TrimSpace(c.GetHeader(SessionHeader)); session != "" && h.orders != nil {
		if o, ok := h.orders.Get(session).Get(orderID); ok {
			return money.ToMinor(o.Total()), true, nil
		}
	}
	if h.store == nil {
		return 0, false, nil
	}
	rec, err := h.store.Get(c.Request.Context(), orderID)
	if err != nil {
		return 0, false, apperr.Internal("order lookup", err)
	}
	if rec == nil || rec.AmountMinor <= 0 {
		return 0, false, nil
	}
	return rec.AmountMinor, true, nil
}

func (h *paymentHandler) count(ctx context.Context, name string) {
	if err := h.metrics.Count(ctx, name, 1, nil); err != nil {
		log.Printf("[metrics] %s: %v", name, err)
	}
}
