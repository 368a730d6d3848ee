// Package common holds the response envelope and request helpers shared by
// the HTTP handlers.
package common

import (
	"errors"
	"strings"

	"github.com/amirasaad/escrow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Envelope statuses.
const (
	StatusSuccess      = "SUCCESS"
	StatusError        = "ERROR"
	StatusException    = "EXCEPTION"
	StatusUnauthorized = "UNAUTHORIZED"
	StatusNotFound     = "NOT_FOUND"
)

// Sentinel kinds reported as ERROR even when not wrapped in a BusinessError.
var businessKinds = []error{
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrConflict,
	domain.ErrAlreadyExists,
}

var httpStatus = map[string]int{
	StatusSuccess:      fiber.StatusOK,
	StatusError:        fiber.StatusBadRequest,
	StatusException:    fiber.StatusInternalServerError,
	StatusUnauthorized: fiber.StatusUnauthorized,
	StatusNotFound:     fiber.StatusNotFound,
}

// Response is the body of every escrow endpoint.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   any    `json:"error"`
}

// HTTPStatus returns the HTTP status code of an envelope status.
func HTTPStatus(status string) int {
	if code, ok := httpStatus[status]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// Respond writes an envelope with the HTTP status matching status.
func Respond(c *fiber.Ctx, status, message string, data, detail any) error {
	return c.Status(HTTPStatus(status)).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Error:   detail,
	})
}

// SuccessResponseJSON writes a SUCCESS envelope.
func SuccessResponseJSON(c *fiber.Ctx, message string, data any) error {
	return Respond(c, StatusSuccess, message, data, nil)
}

// Classify maps err to an envelope status and the message shown to callers.
// Business outcomes keep their message; anything else is an EXCEPTION with a
// generic message.
func Classify(err error) (status, message string) {
	var be *domain.BusinessError
	if errors.As(err, &be) {
		if errors.Is(be.Kind, domain.ErrUnauthorized) {
			return StatusUnauthorized, be.Message
		}
		return StatusError, be.Message
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		return StatusUnauthorized, err.Error()
	}
	for _, kind := range businessKinds {
		if errors.Is(err, kind) {
			return StatusError, err.Error()
		}
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return StatusError, "Validation failed"
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return StatusNotFound, fe.Message
		case fiber.StatusUnauthorized:
			return StatusUnauthorized, fe.Message
		}
		if fe.Code < fiber.StatusInternalServerError {
			return StatusError, fe.Message
		}
	}
	return StatusException, "Internal server error"
}

// ErrorResponseJSON writes the envelope for err. data is kept so a partial
// result (such as the code of a transaction whose link failed) reaches the
// caller.
func ErrorResponseJSON(c *fiber.Ctx, err error, data any) error {
	status, message := Classify(err)
	if status == StatusException {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return Respond(c, status, message, data, err.Error())
}

// ErrorHandler is the fiber error handler; it keeps unknown routes and
// panics inside the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return ErrorResponseJSON(c, err, nil)
}

// BindAndValidate parses the request body into T and validates it. On
// failure it writes the ERROR envelope and returns a nil input along with
// the result of that write.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, Respond(c, StatusError, "Invalid request body", nil, err.Error())
	}
	if err := validate.Struct(input); err != nil {
		return nil, Respond(c, StatusError, "Validation failed", nil, validationDetail(err))
	}
	return &input, nil
}

// BindQuery parses the query string into T and validates it.
func BindQuery[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.QueryParser(&input); err != nil {
		return nil, Respond(c, StatusError, "Invalid query", nil, err.Error())
	}
	if err := validate.Struct(input); err != nil {
		return nil, Respond(c, StatusError, "Validation failed", nil, validationDetail(err))
	}
	return &input, nil
}

var validate = validator.New()

func validationDetail(err error) any {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[lowerFirst(fe.Field())] = fe.Tag()
	}
	return fields
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
