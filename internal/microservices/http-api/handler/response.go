package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stackit/internal/microservices/http-api/dto"
	"stackit/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func respondOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, dto.Response{Success: true, Data: data, Message: message})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.Response{Success: false, Error: message})
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request_failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	respondFail(c, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "not allowed"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrInvalidVoteKind),
		errors.Is(err, service.ErrInvalidContent),
		errors.Is(err, service.ErrInvalidQuery):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrStoreTimeout):
		return http.StatusServiceUnavailable, "try again later"
	case errors.Is(err, service.ErrStoreConflict):
		return http.StatusConflict, "concurrent update, try again"
	}
	return http.StatusInternalServerError, "internal server error"
}
