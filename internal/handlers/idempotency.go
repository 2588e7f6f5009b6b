package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
)

const jsonContentType = "application/json; charset=utf-8"

// replay answers a request whose Idempotency-Key was already claimed: the stored response
// when the first attempt finished, 202 while it is still running, 409 when the key was
// used for a different body.
func replay(c *gin.Context, rec *idempotency.Record, requestHash string) {
	if !rec.SameRequest(requestHash) {
		apperr.Respond(c, apperr.Conflict("Idempotency-Key was already used with a different request"))
		return
	}
	if rec.Status == idempotency.StatusDone {
		if rec.ResponseBody != "" && json.Valid([]byte(rec.ResponseBody)) {
			c.Data(orStatus(rec.ResponseStatus, http.StatusOK), jsonContentType, []byte(rec.ResponseBody))
			return
		}
		c.JSON(orStatus(rec.ResponseStatus, http.StatusOK), gin.H{"orderId": rec.OrderID})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "orderId": rec.OrderID})
}

// finish stores the response for key so retries can replay it, then writes it.
func finish(c *gin.Context, idem *idempotency.Store, key string, status int, body interface{}) {
	raw, err := json.Marshal(body)
	if err != nil {
		apperr.Respond(c, apperr.Internal("encode response", err))
		return
	}
	if idem != nil && key != "" {
		if err := idem.MarkDone(c.Request.Context(), key, string(raw), status); err != nil {
			log.Printf("[idempotency] mark done key=%s: %v", key, err)
		}
	}
	c.Data(status, jsonContentType, raw)
}

func orStatus(status, def int) int {
	if status == 0 {
		return def
	}
	return status
}
