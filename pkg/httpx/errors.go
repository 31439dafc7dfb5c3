// Package httpx holds the Fiber plumbing shared by every HTTP module:
// error rendering, request decoding and validation, and per-request deadlines.
package httpx

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/hypeframe/monarch/pkg/errx"
	"github.com/hypeframe/monarch/pkg/logx"
)

var ErrRegistry = errx.NewRegistry("REQUEST")

var (
	CodeBadRequest       = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Malformed request body")
	CodeValidationFailed = ErrRegistry.Register("VALIDATION_FAILED", errx.TypeValidation, http.StatusBadRequest, "Request validation failed")
	CodeRouteNotFound    = ErrRegistry.Register("ROUTE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "The requested endpoint does not exist")
)

func ErrBadRequest() *errx.Error       { return ErrRegistry.New(CodeBadRequest) }
func ErrValidationFailed() *errx.Error { return ErrRegistry.New(CodeValidationFailed) }

// ErrorHandler converts any handler error into the standard JSON error body.
// Internal causes are logged and never returned to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	requestID := RequestID(c)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"code":       "HTTP_ERROR",
			"status":     fe.Code,
			"request_id": requestID,
		})
	}

	var xe *errx.Error
	if !errors.As(err, &xe) {
		xe = errx.Storage(err)
	}

	entry := logx.WithContext(c.UserContext()).WithFields(logx.Fields{
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": xe.HTTPStatus,
		"code":   xe.Code,
	}).WithError(err)
	if xe.HTTPStatus >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	body := fiber.Map{
		"error":      xe.Message,
		"code":       xe.Code,
		"type":       string(xe.Type),
		"status":     xe.HTTPStatus,
		"request_id": requestID,
	}
	if len(xe.Details) > 0 && xe.Type != errx.TypeInternal {
		body["details"] = xe.Details
	}

	return c.Status(xe.HTTPStatus).JSON(body)
}

// NotFound answers unknown routes with the standard JSON error body.
func NotFound(c *fiber.Ctx) error {
	return ErrRegistry.New(CodeRouteNotFound).
		WithDetail("path", c.Path()).
		WithDetail("method", c.Method())
}
