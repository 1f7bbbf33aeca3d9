package http

import (
	"net/http"

	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/fee"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FeeHandler struct {
	fees *fee.Usecase
	log  *zap.Logger
}

func NewFeeHandler(fees *fee.Usecase, log *zap.Logger) *FeeHandler {
	return &FeeHandler{fees: fees, log: logging.OrNop(log)}
}

// origination and marketplace fees are charged by the release itself
type chargeFeeReq struct {
	FeeType string          `json:"fee_type"     validate:"required,oneof=custody spread"`
	Amount  decimal.Decimal `json:"amount"       validate:"money"`
	// custody fees cover the month starting here; defaults to today
	PeriodStart string `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
}

func (h *FeeHandler) ChargeFee(c echo.Context) error {
	var req chargeFeeReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	dto, err := h.fees.ChargeFee(c.Request().Context(), fee.ChargeInput{
		LoanID:      c.Param("loan_id"),
		FeeType:     req.FeeType,
		Amount:      req.Amount,
		PeriodStart: parseDay(req.PeriodStart),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *FeeHandler) ListFees(c echo.Context) error {
	out, err := h.fees.List(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"fees": out})
}

func (h *FeeHandler) RevenueForecast(c echo.Context) error {
	dto, err := h.fees.ComputeRevenueFirstYear(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
