// Package response holds the shared HTTP response envelope and the mapping
// from domain errors to status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the standard success body.
type Envelope struct {
	Data any `json:"data"`
}

// PaginatedEnvelope is the success body for list endpoints.
type PaginatedEnvelope struct {
	Data  any   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ErrorBody is the standard error body.
type ErrorBody struct {
	Error string `json:"error"`
}

// Success writes a 200 with the data envelope.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Data: data})
}

// Created writes a 201 with the data envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Data: data})
}

// Paginated writes a 200 with paging metadata.
func Paginated(c *gin.Context, data any, page, limit int, total int64) {
	c.JSON(http.StatusOK, PaginatedEnvelope{Data: data, Page: page, Limit: limit, Total: total})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: message})
}

// Error maps a domain error to an HTTP status and writes it.
func Error(c *gin.Context, err error) {
	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorBody{Error: domErr.Message})
		case errors.Is(err, domain.ErrConflict):
			c.JSON(http.StatusConflict, ErrorBody{Error: domErr.Message})
		case errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorBody{Error: domErr.Message})
		case errors.Is(err, domain.ErrInvalidState):
			c.JSON(http.StatusUnprocessableEntity, ErrorBody{Error: domErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
		}
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}
