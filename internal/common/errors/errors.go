package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`

	// class marks a status-wide sentinel such as ErrNotFound.
	class bool
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches status-wide sentinels on the code alone, so
// errors.Is(err, ErrNotFound) holds for any 404 produced anywhere. Other
// targets, such as ErrInsufficientStock, also need the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.Code != t.Code {
		return false
	}
	return t.class || e.Message == t.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation builds a 400 with a caller supplied message.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, nil)
}

// NotFound builds a 404 with a caller supplied message.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

// Transport wraps a network or storage failure as a retryable 503.
func Transport(err error) *Error {
	return New(http.StatusServiceUnavailable, "Service unavailable, please retry", err)
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "Server error", err)
}

// From returns err as an *Error, wrapping anything else as internal.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// StatusCode extracts the HTTP status of err, 500 for non-app errors.
func StatusCode(err error) int {
	return From(err).Code
}

func class(code int, message string) *Error {
	return &Error{Code: code, Message: message, class: true}
}

// Common error types. Each matches every error with its status code.
var (
	ErrBadRequest         = class(http.StatusBadRequest, "Bad request")
	ErrUnauthorized       = class(http.StatusUnauthorized, "Not authorized")
	ErrForbidden          = class(http.StatusForbidden, "Forbidden")
	ErrNotFound           = class(http.StatusNotFound, "Not found")
	ErrInternalServer     = class(http.StatusInternalServerError, "Internal server error")
	ErrServiceUnavailable = class(http.StatusServiceUnavailable, "Service unavailable")
)

// ErrorMiddleware renders the last error attached with c.Error as
// {code, message}. Handlers that already wrote a response are left alone.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := From(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}

// Validation error types
var (
	ErrValidation   = New(http.StatusBadRequest, "Validation error", nil)
	ErrInvalidInput = New(http.StatusBadRequest, "Invalid input", nil)
)

// Authentication error types
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid email or password", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Not authorized, token failed", nil)
	ErrNoToken            = New(http.StatusUnauthorized, "Not authorized, no token", nil)
)

// Business logic error types
var (
	ErrInsufficientStock = New(http.StatusBadRequest, "Insufficient stock", nil)
	ErrInvalidOrder      = New(http.StatusBadRequest, "Invalid order", nil)
	ErrPaymentFailed     = New(http.StatusBadRequest, "Payment failed", nil)
	ErrProductNotFound   = New(http.StatusNotFound, "Product not found", nil)
)
