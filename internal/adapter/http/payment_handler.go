package http

import (
	"net/http"
	"time"

	"edu-lending-core/internal/adapter/middleware"
	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *payment.Usecase
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentHandler(p *payment.Usecase, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: p, now: time.Now, log: logging.OrNop(log)}
}

type payInstallmentReq struct {
	Method string          `json:"method" validate:"required,max=16"`
	Amount decimal.Decimal `json:"amount" validate:"money"`
	// defaults to today
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *PaymentHandler) PayInstallment(c echo.Context) error {
	var req payInstallmentReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	in := payment.PayInput{
		InstallmentID: c.Param("installment_id"),
		Method:        req.Method,
		Amount:        req.Amount,
		Date:          h.now().UTC(),
		RequestID:     middleware.RequestID(c),
	}
	if d := parseDay(req.Date); d != nil {
		in.Date = *d
	}
	dto, err := h.payments.PayInstallment(c.Request().Context(), in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
