package auth

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves the user API. Bodies follow {"message": ...} for errors.
type Handler struct {
	svc    *Service
	tokens *Tokens
}

func NewHandler(svc *Service, tokens *Tokens) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Register mounts the routes on r, usually the /api/users group.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh-token", h.refresh)
	r.POST("/logout", h.logout)
	r.GET("/current", RequireBearer(h.tokens), h.current)
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) register(c *gin.Context) {
	var in RegisterInput
	if !bind(c, &in) {
		return
	}
	u, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		respond(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

func (h *Handler) login(c *gin.Context) {
	var in LoginInput
	if !bind(c, &in) {
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		respond(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"user": gin.H{
			"id":       sess.User.ID,
			"username": sess.User.Username,
			"email":    sess.User.Email,
		},
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var body refreshBody
	if !bind(c, &body) {
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respond(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) logout(c *gin.Context) {
	var body refreshBody
	if !bind(c, &body) {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), body.RefreshToken); err != nil {
		respond(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) current(c *gin.Context) {
	u, err := h.svc.Current(c.Request.Context(), UserID(c))
	if err != nil {
		respond(c, "current user", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// bind decodes a JSON body into out. An empty body leaves out zero so the service reports
// what is missing; a malformed one is answered with ErrInvalidBody.
func bind(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		respond(c, "bind", ErrInvalidBody)
		return false
	}
	return true
}

func respond(c *gin.Context, op string, err error) {
	var e *Error
	if errors.As(err, &e) {
		c.JSON(e.Status, gin.H{"message": e.Message})
		return
	}
	log.Printf("[auth] %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing request"})
}
