package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/storage"
)

// messageResponse is the body of every error and of delete confirmations.
type messageResponse struct {
	Message string `json:"message"`
}

func respondWithMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, messageResponse{Message: message})
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string) {
	respondWithMessage(c, http.StatusBadRequest, message)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithMessage(c, http.StatusNotFound, message)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error) {
	logger.ErrorCtx(c.Request.Context(), err,
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
	)
	respondWithMessage(c, http.StatusInternalServerError, "Internal server error")
}

// respondStoreError maps storage errors to statuses. notFound is the
// message for a missing record.
func respondStoreError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondNotFound(c, notFound)
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, storage.ErrDuplicateKey):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err)
	}
}
