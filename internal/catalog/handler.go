package catalog

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// Messages of the product API. Clients match on them, keep them stable.
const (
	MsgNoProducts      = "No products found"
	MsgProductNotFound = "Product not found"
	MsgProductDeleted  = "Product deleted successfully"
	MsgProductsExist   = "Some products with these IDs already exist"
	MsgInvalidProducts = "Request body must be a non-empty array of products"
	MsgInternalFailure = "Internal server error"
)

// Handler serves the product REST API. Errors are {"message": ...} bodies.
type Handler struct {
	store    Store
	validate *validatorv10.Validate
}

func NewHandler(store Store, v *validatorv10.Validate) *Handler {
	if v == nil {
		v = validation.New()
	}
	return &Handler{store: store, validate: v}
}

// Register mounts the routes on r, usually the /api/products group.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/create_products", h.createProducts)
	r.GET("/get_all_products", h.getAllProducts)
	r.GET("/get_product/:id", h.getProduct)
	r.PUT("/update_product/:id", h.updateProduct)
	r.DELETE("/delete_product/:id", h.deleteProduct)
}

func (h *Handler) createProducts(c *gin.Context) {
	var products []Product
	if err := c.ShouldBindJSON(&products); err != nil || len(products) == 0 {
		message(c, http.StatusBadRequest, MsgInvalidProducts)
		return
	}
	ids := make([]string, 0, len(products))
	seen := map[string]bool{}
	for i := range products {
		if err := h.validate.Struct(products[i]); err != nil {
			message(c, http.StatusBadRequest, fieldMessage(i, err))
			return
		}
		if seen[products[i].ID] {
			c.JSON(http.StatusBadRequest, gin.H{
				"message":            MsgProductsExist,
				"existingProductIds": []string{products[i].ID},
			})
			return
		}
		seen[products[i].ID] = true
		ids = append(ids, products[i].ID)
	}

	ctx := c.Request.Context()
	existing, err := h.store.ExistingIDs(ctx, ids)
	if err != nil {
		internal(c, "look up products", err)
		return
	}
	if len(existing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgProductsExist, "existingProductIds": existing})
		return
	}

	if err := h.store.InsertMany(ctx, products); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			c.JSON(http.StatusBadRequest, gin.H{"message": MsgProductsExist, "existingProductIds": dup.IDs})
			return
		}
		internal(c, "insert products", err)
		return
	}
	c.JSON(http.StatusCreated, products)
}

// getAllProducts answers 404 on an empty catalog; existing clients depend on it.
func (h *Handler) getAllProducts(c *gin.Context) {
	products, err := h.store.List(c.Request.Context())
	if err != nil {
		internal(c, "list products", err)
		return
	}
	if len(products) == 0 {
		message(c, http.StatusNotFound, MsgNoProducts)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		internal(c, "get product", err)
		return
	}
	if p == nil {
		message(c, http.StatusNotFound, MsgProductNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var u ProductUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		message(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(u); err != nil {
		message(c, http.StatusBadRequest, fieldMessage(-1, err))
		return
	}
	p, err := h.store.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		internal(c, "update product", err)
		return
	}
	if p == nil {
		message(c, http.StatusNotFound, MsgProductNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	deleted, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		internal(c, "delete product", err)
		return
	}
	if !deleted {
		message(c, http.StatusNotFound, MsgProductNotFound)
		return
	}
	message(c, http.StatusOK, MsgProductDeleted)
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

func internal(c *gin.Context, op string, err error) {
	log.Printf("[catalog] %s: %v", op, err)
	message(c, http.StatusInternalServerError, MsgInternalFailure)
}

func fieldMessage(index int, err error) string {
	fe := validation.FirstError(err)
	if fe == nil {
		return err.Error()
	}
	if index < 0 {
		return fe.Message
	}
	return fmt.Sprintf("product %d: %s", index, fe.Message)
}
