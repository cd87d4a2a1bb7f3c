package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/models"
)

// Borrow handles POST /borrow
func (h *Handler) Borrow(c *gin.Context) {
	h.circulate(c, h.circulation.Borrow, "borrowed")
}

// Return handles POST /return
func (h *Handler) Return(c *gin.Context) {
	h.circulate(c, h.circulation.Return, "returned")
}

func (h *Handler) circulate(c *gin.Context, op func(context.Context, uint) (models.Book, error), verb string) {
	var req models.CirculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errBadBody)
		return
	}

	book, err := op(c.Request.Context(), req.BookID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("You have successfully %s '%s'", verb, book.Title),
	})
}
