// Package response writes the JSON envelope used by every HTTP endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// Envelope is the body shape of every response.
type Envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Page describes one page of a listing.
type Page struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// Paginated writes 200 with a page of items.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: Page{Items: items, Total: total, Page: page, Limit: limit}})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest writes 400 with a message.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Error: message})
}

// Unauthorized writes 401 with a message.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Error: message})
}

// Error maps an application error onto a status code. Errors that are not
// part of the apperr taxonomy are reported as a generic 500 so internal
// detail never reaches the client.
func Error(c *gin.Context, err error) {
	var (
		validationErr   *apperr.ValidationError
		notFoundErr     *apperr.NotFoundError
		conflictErr     *apperr.ConflictError
		invalidStateErr *apperr.InvalidStateError
		forbiddenErr    *apperr.ForbiddenError
		unauthorizedErr *apperr.UnauthorizedError
		retryableErr    *apperr.RetryableError
	)

	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Envelope{
			Error:  validationErr.Message,
			Fields: validationErr.Fields,
		})
	case errors.As(err, &notFoundErr):
		c.AbortWithStatusJSON(http.StatusNotFound, Envelope{Error: notFoundErr.Error()})
	case errors.As(err, &invalidStateErr):
		c.AbortWithStatusJSON(http.StatusConflict, Envelope{Error: invalidStateErr.Error()})
	case errors.As(err, &conflictErr):
		c.AbortWithStatusJSON(http.StatusConflict, Envelope{Error: conflictErr.Message})
	case errors.As(err, &forbiddenErr):
		c.AbortWithStatusJSON(http.StatusForbidden, Envelope{Error: forbiddenErr.Message})
	case errors.As(err, &unauthorizedErr):
		c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Error: unauthorizedErr.Message})
	case errors.As(err, &retryableErr):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Envelope{Error: retryableErr.Public})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{Error: "internal server error"})
	}
}
