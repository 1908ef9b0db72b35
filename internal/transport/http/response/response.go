package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-user-service/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New keeps data non-null on the wire.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error builds a failure envelope; customMsg overrides the default.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// FieldError is the payload for a validation failure: the offending field and
// a renderable message, nothing else.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Fail maps a domain error onto the HTTP status and envelope the API
// contract promises. Storage internals never reach the client verbatim.
func Fail(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		payload := New(CodeBadRequest, "validation failed", FieldError{
			Field:   string(verr.Kind),
			Message: verr.Message,
		})
		c.JSON(http.StatusBadRequest, payload)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, Error(CodeNotFound, ""))
		return
	}
	var cerr *domain.ConcurrencyError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, Error(CodeConflict, "the record was modified by another request, retry"))
		return
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.JSON(http.StatusGatewayTimeout, Error(CodeServerError, "request cancelled"))
		return
	}
	c.JSON(http.StatusInternalServerError, Error(CodeServerError, ""))
}
