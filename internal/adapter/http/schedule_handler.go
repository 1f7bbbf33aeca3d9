package http

import (
	"net/http"

	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/schedule"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	schedule *schedule.Usecase
	log      *zap.Logger
}

func NewScheduleHandler(s *schedule.Usecase, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedule: s, log: logging.OrNop(log)}
}

type generateScheduleReq struct {
	Timing            string           `json:"timing"              validate:"required,oneof=during_studies after_graduation hybrid"`
	GraduationDate    string           `json:"graduation_date"     validate:"omitempty,datetime=2006-01-02"`
	GracePeriodMonths int              `json:"grace_period_months" validate:"gte=0,lte=24"`
	PlatformSharePct  *decimal.Decimal `json:"platform_share_pct"  validate:"omitempty,rate"`
}

func (h *ScheduleHandler) GenerateSchedule(c echo.Context) error {
	var req generateScheduleReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	out, err := h.schedule.GenerateSchedule(c.Request().Context(), schedule.GenerateInput{
		LoanID:            c.Param("loan_id"),
		Timing:            req.Timing,
		GraduationDate:    parseDay(req.GraduationDate),
		GracePeriodMonths: req.GracePeriodMonths,
		PlatformSharePct:  req.PlatformSharePct,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"installments": out})
}

func (h *ScheduleHandler) ListInstallments(c echo.Context) error {
	out, err := h.schedule.Installments(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"installments": out})
}
