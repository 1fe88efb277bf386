package errcodes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/errutils"
)

// StatusClientClosedRequest is reported when the caller went away before the
// handler finished.
const StatusClientClosedRequest = 499

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

type payload struct {
	Error payloadError `json:"error"`
}

type payloadError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// Handle renders err as the JSON error envelope. Anything that isn't an
// *Error or an *echo.HTTPError becomes a 500 and is logged.
func (h *Handler) Handle(err error, c echo.Context) {
	log := logger.FromEchoContext(c)

	if errutils.IsIgnorableErr(err) {
		log.Err(err).Warn("broken pipe")
		return
	}
	if c.Response().Committed {
		log.Err(err).Warn("error after response was committed")
		return
	}

	p := toPayload(err)
	switch p.Error.StatusCode {
	case http.StatusInternalServerError:
		log.Err(err).Error("server error")
	case StatusClientClosedRequest:
		log.Err(err).Info("request cancelled")
	}

	if err := c.JSON(p.Error.StatusCode, p); err != nil {
		log.Err(errors.WithStack(err)).Error("error handler json error")
	}
}

func toPayload(err error) payload {
	var e *Error
	if errors.As(err, &e) {
		return newPayload(e.HTTPCode, e.Code, e.Message)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprint(he.Message)
		}
		return newPayload(he.Code, strcase.ToSnake(msg), msg)
	}

	if errors.Is(err, context.Canceled) {
		return newPayload(StatusClientClosedRequest, "request_cancelled", "Request cancelled")
	}

	return newPayload(http.StatusInternalServerError, "internal_server_error", "Internal Server Error")
}

func newPayload(status int, code, msg string) payload {
	return payload{Error: payloadError{Code: code, Message: msg, StatusCode: status}}
}
