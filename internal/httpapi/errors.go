package httpapi

import (
	"net/http"

	"campusDelivery/internal/apperr"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindInsufficientFunds:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the JSON error envelope and stops the chain.
func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnauthenticated {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if kind == apperr.KindInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(statusFor(kind), errorResponse{Error: apperr.Message(err), Kind: kind})
}

func (h *handler) fail(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		h.Log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	abortWithError(c, err)
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, apperr.InvalidInput("invalid request body: %v", err))
}
