package handlers

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"farmmarket/internal/apperrors"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

// Page wraps a paginated listing.
type Page struct {
	Items      interface{} `json:"items"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"totalPages"`
	HasNext    bool        `json:"hasNext"`
	HasPrev    bool        `json:"hasPrev"`
}

func respondOK(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Message: message, Data: data})
}

// respondError maps a service error to the envelope. Internal errors are
// logged with context and never leak store error text to the client.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := apperrors.StatusCode(err)
	body := Envelope{Success: false, Message: message, Field: apperrors.FieldOf(err)}
	if status == fiber.StatusInternalServerError {
		zap.S().Errorw("request failed", "path", c.Path(), "error", err)
		body.Error = "internal server error"
	} else {
		body.Error = err.Error()
	}
	return c.Status(status).JSON(body)
}

// respondValidation converts validator errors to the envelope with the first
// failing field.
func respondValidation(c *fiber.Ctx, err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		e := validationErrors[0]
		return c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false,
			Message: "Validation failed",
			Error:   fmt.Sprintf("field '%s' failed on the '%s' rule", e.Field(), e.Tag()),
			Field:   e.Field(),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "Validation failed",
		Error:   err.Error(),
	})
}

func respondBadBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{
		Success: false,
		Message: "Invalid request body",
		Error:   err.Error(),
	})
}

// pageParams reads {page,limit} query params with sane bounds.
func pageParams(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func newPage(items interface{}, page, limit int, total int64) Page {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Page{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
