package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/payment"
)

const (
	SessionHeader     = "X-Session-Id"
	IdempotencyHeader = "Idempotency-Key"

	ctxSession = "session"
)

// HandlerConfig groups the dependencies of the storefront API. The DynamoDB-backed stores,
// the publisher and the metrics are optional; nil disables what they back.
type HandlerConfig struct {
	Validator *validatorv10.Validate

	Carts  *cart.Sessions
	Orders *orders.Histories

	OrderStore  *orders.Store
	Idempotency *idempotency.Store

	Initiator     *payment.Initiator
	Receiver      *payment.StatusReceiver
	Publisher     *aws.Publisher
	Metrics       *aws.Metrics
	PublicBaseURL string

	Catalog *catalog.Handler
	Auth    *auth.Handler
}

// RegisterRoutes mounts every storefront route on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if cfg.Catalog != nil {
		cfg.Catalog.Register(api.Group("/products"))
	}
	if cfg.Auth != nil {
		cfg.Auth.Register(api.Group("/users"))
	}

	session := api.Group("", requireSession)
	ch := &cartHandler{carts: cfg.Carts, v: cfg.Validator}
	session.GET("/cart", ch.get)
	session.POST("/cart/items", ch.add)
	session.PUT("/cart/items/:id", ch.setQuantity)
	session.DELETE("/cart/items/:id", ch.remove)
	session.DELETE("/cart", ch.clear)

	oh := &ordersHandler{
		carts:  cfg.Carts,
		orders: cfg.Orders,
		store:  cfg.OrderStore,
		idem:   cfg.Idempotency,
		v:      cfg.Validator,
	}
	session.POST("/checkout", oh.checkout)
	session.GET("/orders", oh.list)
	session.GET("/orders/:id", oh.get)
	session.PATCH("/orders/:id/status", oh.updateStatus)

	ph := &paymentHandler{
		initiator: cfg.Initiator,
		receiver:  cfg.Receiver,
		orders:    cfg.Orders,
		store:     cfg.OrderStore,
		idem:      cfg.Idempotency,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		public:    strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	api.POST("/order", ph.initiate)
	api.GET("/status", ph.status)
	api.POST("/status", ph.status)
}

func requireSession(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(SessionHeader))
	if id == "" {
		apperr.Respond(c, apperr.Validation(SessionHeader, SessionHeader+" header is required"))
		return
	}
	c.Set(ctxSession, id)
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSession)
}
