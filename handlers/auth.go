package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/models"
)

// Register handles POST /register
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errBadBody)
		return
	}

	if _, err := h.accounts.Register(c.Request.Context(), req); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "user successfully created"})
}

// Login handles POST /login. Credentials may arrive as a form or as JSON.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.abortWithError(c, errBadBody)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.Username, user.Role)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
