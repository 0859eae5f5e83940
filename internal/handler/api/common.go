package api

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"furnistore/internal/models"
	"furnistore/internal/service"
)

// Validator adapts go-playground/validator to echo.
type Validator struct {
	v *validator.Validate
}

// NewValidator reports field errors under their json names and validates
// decimal fields numerically.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// Response helpers. Every JSON answer uses the models.APIResponse envelope.
func successResponse(c echo.Context, status int, msg string, data interface{}) error {
	return c.JSON(status, models.APIResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func paginatedResponse(c echo.Context, data interface{}, total int64, page, perPage int) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    models.NewPaginationMeta(total, page, perPage),
	})
}

func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, models.APIResponse{
		Success: false,
		Message: msg,
	})
}

func validationResponse(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusUnprocessableEntity, models.APIResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	})
}

// bindAndValidate binds the request into req and validates it. On failure it
// has already written the 422 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, validationResponse(c, map[string]string{"body": "Malformed request body"})
	}
	if err := c.Validate(req); err != nil {
		return false, validationResponse(c, fieldErrors(err))
	}
	return true, nil
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "Invalid request"
		return out
	}
	for _, e := range verrs {
		name := e.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
		out[name] = validationMessage(e)
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "eqfield":
		return "Confirmation does not match"
	default:
		return "Invalid value"
	}
}

// serviceError maps service errors to responses. Anything unknown is logged
// and answered with a generic 500.
func serviceError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	var gwErr *service.GatewayError
	switch {
	case errors.As(err, &gwErr):
		return c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Message: "Payment gateway initialization failed",
			Errors:  map[string]string{"gateway": gwErr.Reason},
		})
	case errors.Is(err, service.ErrOrderNotFound):
		return errorResponse(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrProductNotFound):
		return errorResponse(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, service.ErrPaymentNotFound):
		return errorResponse(c, http.StatusNotFound, "Payment not found")
	case errors.Is(err, service.ErrInsufficientStock):
		return errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProductUnavailable):
		return errorResponse(c, http.StatusBadRequest, "Product is not available")
	case errors.Is(err, service.ErrCannotCancelDelivered):
		return errorResponse(c, http.StatusBadRequest, "Cannot cancel delivered order")
	case errors.Is(err, service.ErrAlreadyPaid):
		return errorResponse(c, http.StatusBadRequest, "This order has already been paid")
	case errors.Is(err, service.ErrOrderCancelled):
		return errorResponse(c, http.StatusBadRequest, "This order has been cancelled")
	case errors.Is(err, service.ErrInvalidOrder):
		return errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		return errorResponse(c, http.StatusUnprocessableEntity, "Invalid status")
	case errors.Is(err, service.ErrGatewayUnavailable):
		logger.Error("Payment gateway unreachable", zap.Error(err))
		return errorResponse(c, http.StatusBadGateway, "Failed to connect to payment gateway")
	case errors.Is(err, service.ErrEmailTaken):
		return validationResponse(c, map[string]string{"email": "The email has already been taken"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return errorResponse(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrWrongPassword):
		return validationResponse(c, map[string]string{"current_password": "Current password is incorrect"})
	case errors.Is(err, service.ErrUnauthenticated):
		return errorResponse(c, http.StatusUnauthorized, "Unauthenticated")
	}

	logger.Error(fallback,
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return errorResponse(c, http.StatusInternalServerError, fallback)
}

func idParam(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func intQuery(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return fallback
	}
	return v
}
