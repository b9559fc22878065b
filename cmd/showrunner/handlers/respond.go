package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lumacast/showrunner/common/apperr"
)

// errorBody is the JSON error envelope returned by every endpoint
type errorBody struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	ChildCount int    `json:"child_count,omitempty"`
}

// respondErr maps domain errors to HTTP status codes:
// validation 400, not found 404, blocked delete 409 (with the child
// count so the caller can offer cascade), switcher failure 502,
// anything else 500.
func respondErr(c echo.Context, err error) error {
	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusBadRequest, errorBody{
			Error: validation.Error(),
			Field: validation.Field,
		})
	}

	var notFound *apperr.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, errorBody{Error: notFound.Error()})
	}

	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, errorBody{
			Error:      conflict.Error(),
			ChildCount: conflict.ChildCount,
		})
	}

	var external *apperr.ExternalServiceError
	if errors.As(err, &external) {
		return c.JSON(http.StatusBadGateway, errorBody{Error: external.Error()})
	}

	return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
}

// pathUUID parses a UUID path parameter
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, &apperr.ValidationError{Field: name, Message: "must be a valid uuid"}
	}
	return id, nil
}
