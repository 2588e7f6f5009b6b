package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/cart"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

type cartHandler struct {
	carts *cart.Sessions
	v     *validatorv10.Validate
}

// cartView is the cart as returned by every cart route.
type cartView struct {
	Items []cart.Item `json:"items"`
	Total string      `json:"total"`
	Count int         `json:"count"`
}

func viewOf(st *cart.Store) cartView {
	items := st.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartView{Items: items, Total: st.Total().StringFixed(2), Count: len(items)}
}

func (h *cartHandler) store(c *gin.Context) *cart.Store {
	return h.carts.Get(c.Request.Context(), sessionID(c))
}

func (h *cartHandler) get(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(h.store(c)))
}

func (h *cartHandler) add(c *gin.Context) {
	var req validation.AddCartItemRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	st := h.store(c)
	st.Add(c.Request.Context(), cart.Item{
		ID:    string(req.ID),
		Name:  req.Name,
		Price: req.Price,
		Image: req.Image,
	})
	c.JSON(http.StatusOK, viewOf(st))
}

func (h *cartHandler) setQuantity(c *gin.Context) {
	var req validation.UpdateQuantityRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	st := h.store(c)
	st.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, viewOf(st))
}

func (h *cartHandler) remove(c *gin.Context) {
	st := h.store(c)
	st.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, viewOf(st))
}

func (h *cartHandler) clear(c *gin.Context) {
	st := h.store(c)
	st.Clear(c.Request.Context())
	c.JSON(http.StatusOK, viewOf(st))
}
