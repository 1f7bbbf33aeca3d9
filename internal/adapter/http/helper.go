package http

import (
	"errors"
	"net/http"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var errBadBody = errors.New("invalid body")

// statusOf maps an error kind to its HTTP status and the generic message
// shown to clients. Internal details stay in the logs.
func statusOf(k errs.Kind) (int, string) {
	switch k {
	case errs.KindInvalidInput:
		return http.StatusBadRequest, "invalid input"
	case errs.KindInvalidAmount:
		return http.StatusBadRequest, "invalid amount"
	case errs.KindNotFound:
		return http.StatusNotFound, "not found"
	case errs.KindInvalidState:
		return http.StatusConflict, "operation not allowed in current state"
	case errs.KindAlreadySettled:
		return http.StatusConflict, "already settled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func fail(c echo.Context, log *zap.Logger, err error) error {
	kind := errs.KindOf(err)
	code, msg := statusOf(kind)
	if code >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("route", c.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("route", c.Path()), zap.Error(err))
	}
	return c.JSON(code, ErrorResponse{Error: msg, Code: string(kind)})
}

// bind decodes and validates the body. On failure the response is already
// written and the returned error is errBadBody.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		return errBadBody
	}
	if err := c.Validate(req); err != nil {
		_ = c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
		return errBadBody
	}
	return nil
}

// parseDay parses an optional YYYY-MM-DD as a UTC date. Validation has
// already checked the layout.
func parseDay(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
