package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irisdrone/library/auth"
	"github.com/irisdrone/library/services"
)

var (
	errNotAuthenticated = &services.Error{Kind: auth.ErrUnauthenticated, Detail: "Not authenticated"}
	errBadCredentials   = &services.Error{Kind: auth.ErrUnauthenticated, Detail: "Could not validate credentials"}
	errNoPermission     = &services.Error{Kind: auth.ErrForbidden, Detail: "Not enough permissions"}
	errBadBody          = &services.Error{Kind: services.ErrInvalidInput, Detail: "Invalid request body"}
	errBadBookID        = &services.Error{Kind: services.ErrInvalidInput, Detail: "Invalid book id"}
)

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes {"detail": ...} and stops the handler chain.
// Internal failures are logged and never leak their message.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	detail := services.Detail(err)

	switch {
	case status == http.StatusInternalServerError:
		h.log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		detail = "Internal server error"
	case status == http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
		if detail == "" {
			detail = errBadCredentials.Detail
		}
	case status == http.StatusForbidden && detail == "":
		detail = errNoPermission.Detail
	case detail == "":
		detail = http.StatusText(status)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
