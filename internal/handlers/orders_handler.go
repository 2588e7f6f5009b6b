package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

type ordersHandler struct {
	carts  *cart.Sessions
	orders *orders.Histories
	store  *orders.Store
	idem   *idempotency.Store
	v      *validatorv10.Validate
}

// checkout turns the session's cart into an order. With an Idempotency-Key header and both
// tables configured, the idempotency record and the order are written in one transaction.
func (h *ordersHandler) checkout(c *gin.Context) {
	ctx := c.Request.Context()
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperr.Respond(c, apperr.Validation("", "could not read request body"))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))

	var req validation.CheckoutRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}

	key := c.GetHeader(IdempotencyHeader)
	transactional := key != "" && h.idem != nil && h.store != nil
	hash := idempotency.Fingerprint(raw)
	if transactional {
		rec, err := h.idem.Get(ctx, key)
		if err != nil {
			apperr.Respond(c, apperr.Internal("idempotency check", err))
			return
		}
		if rec != nil {
			replay(c, rec, hash)
			return
		}
	}

	session := sessionID(c)
	items := h.carts.Get(ctx, session).Items()
	if len(items) == 0 {
		apperr.Respond(c, apperr.Validation("cart", "cart is empty"))
		return
	}

	order := h.orders.Get(session).Create(items, orders.CustomerDetails{
		Name:    req.Customer.Name,
		Email:   req.Customer.Email,
		Address: req.Customer.Address,
		Extra:   req.Customer.Extra,
	})
	rec := orders.NewRecord(order, session)

	switch {
	case transactional:
		err := h.store.PutWithIdempotency(ctx, h.idem.Table(), h.idem.NewRecord(key, order.ID, hash), rec, 0)
		if errors.Is(err, orders.ErrIdempotencyKeyExists) {
			// lost a race with a concurrent request carrying the same key
			if existing, gerr := h.idem.Get(ctx, key); gerr == nil && existing != nil {
				replay(c, existing, hash)
				return
			}
			apperr.Respond(c, apperr.Conflict("Idempotency-Key is already in use"))
			return
		}
		if err == nil {
			c.Header("Location", "/api/orders/"+order.ID)
			finish(c, h.idem, key, http.StatusCreated, order)
			return
		}
		log.Printf("[orders] persist order=%s: %v", order.ID, err)
	case h.store != nil:
		if err := h.store.Put(ctx, rec); err != nil {
			log.Printf("[orders] persist order=%s: %v", order.ID, err)
		}
	}

	c.Header("Location", "/api/orders/"+order.ID)
	c.JSON(http.StatusCreated, order)
}

func (h *ordersHandler) list(c *gin.Context) {
	all := h.orders.Get(sessionID(c)).All()
	if all == nil {
		all = []orders.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": all})
}

// get looks in the session history first and falls back to the durable store, which still
// has orders placed before a restart.
func (h *ordersHandler) get(c *gin.Context) {
	session, id := sessionID(c), c.Param("id")
	if o, ok := h.orders.Get(session).Get(id); ok {
		c.JSON(http.StatusOK, o)
		return
	}
	if h.store != nil {
		rec, err := h.store.Get(c.Request.Context(), id)
		if err != nil {
			apperr.Respond(c, apperr.Internal("order lookup", err))
			return
		}
		if rec != nil && rec.Session == session {
			c.JSON(http.StatusOK, rec.Order())
			return
		}
	}
	apperr.Respond(c, apperr.NotFound("order not found"))
}

// updateStatus sets any status on an order of this session; the previous status is not
// checked. Stored orders of other sessions are reported as not found.
func (h *ordersHandler) updateStatus(c *gin.Context) {
	var req validation.UpdateOrderStatusRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	ctx := c.Request.Context()
	session, id, status := sessionID(c), c.Param("id"), orders.Status(req.Status)
	if !status.Known() {
		log.Printf("[orders] order=%s set to unlisted status %q", id, status)
	}

	history := h.orders.Get(session)
	found := history.UpdateStatus(id, status)
	if h.store != nil {
		rec, err := h.store.Get(ctx, id)
		if err != nil {
			apperr.Respond(c, apperr.Internal("order lookup", err))
			return
		}
		if rec != nil && rec.Session == session {
			err := h.store.SetStatus(ctx, id, status)
			switch {
			case err == nil:
				found = true
			case !errors.Is(err, orders.ErrNotFound):
				apperr.Respond(c, apperr.Internal("order status update", err))
				return
			}
		}
	}
	if !found {
		apperr.Respond(c, apperr.NotFound("order not found"))
		return
	}

	if o, ok := history.Get(id); ok {
		c.JSON(http.StatusOK, o)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}
