package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/models"
)

// ListBooks handles GET /admin/books
func (h *Handler) ListBooks(c *gin.Context) {
	books, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

// CreateBook handles POST /admin/books
func (h *Handler) CreateBook(c *gin.Context) {
	var req models.BookCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errBadBody)
		return
	}

	book, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book added successfully",
		"data":    book,
	})
}

// UpdateBook handles PUT /admin/books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	id, ok := h.bookID(c)
	if !ok {
		return
	}

	var req models.BookUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errBadBody)
		return
	}

	book, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /admin/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	id, ok := h.bookID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchBooks handles GET /books?search=
func (h *Handler) SearchBooks(c *gin.Context) {
	books, err := h.catalog.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *Handler) bookID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.abortWithError(c, errBadBookID)
		return 0, false
	}
	return uint(id), true
}
