package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/portcullis-admin/portcullis/internal/acl"
)

const internalErrorMsg = "internal server error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// Status maps err to its HTTP status code.
func Status(err error) int {
	var fe *fiber.Error

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, acl.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, acl.ErrDuplicate), errors.Is(err, acl.ErrConstraint):
		return fiber.StatusConflict
	case errors.Is(err, acl.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, acl.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders err as an ErrorResponse. Internal errors are logged and not shown.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := Status(err)

	var (
		fe       *fiber.Error
		messages []string
	)

	switch {
	case errors.As(err, &fe):
		messages = []string{fe.Message}
	case code == fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		messages = []string{internalErrorMsg}
	default:
		messages = acl.Messages(err)
	}

	if code == fiber.StatusServiceUnavailable {
		log.Error().Err(err).Str("path", c.Path()).Msg("service unavailable")
	}

	return c.Status(code).JSON(ErrorResponse{Errors: messages})
}

// ID parses the numeric route parameter name.
func ID(c fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}

	return uint(id), nil
}

// Bind decodes the request body into out and validates it.
func Bind(c fiber.Ctx, validate *validator.Validate, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(out); err != nil {
		return &acl.Error{Kind: acl.ErrValidation, Messages: acl.Messages(err)}
	}

	return nil
}

// Created answers 201 with v.
func Created(c fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}

// NoContent answers 204.
func NoContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
