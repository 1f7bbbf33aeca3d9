package http

import (
	"net/http"

	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/disbursement"
	"edu-lending-core/internal/usecase/loan"
	"edu-lending-core/internal/usecase/matching"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LoanHandler struct {
	loans    *loan.Usecase
	matching *matching.Usecase
	release  *disbursement.Usecase
	log      *zap.Logger
}

func NewLoanHandler(loans *loan.Usecase, m *matching.Usecase, d *disbursement.Usecase, log *zap.Logger) *LoanHandler {
	return &LoanHandler{loans: loans, matching: m, release: d, log: logging.OrNop(log)}
}

type createLoanReq struct {
	BorrowerID        string           `json:"borrower_id"         validate:"required,hex32"`
	InstitutionID     string           `json:"institution_id"      validate:"required,hex32"`
	Amount            decimal.Decimal  `json:"amount"              validate:"money"`
	TermMonths        int              `json:"term_months"         validate:"gte=1,lte=360"`
	MonthlyRate       decimal.Decimal  `json:"monthly_rate"        validate:"rate"`
	OriginationPct    *decimal.Decimal `json:"origination_pct"     validate:"omitempty,rate"`
	MarketplacePct    *decimal.Decimal `json:"marketplace_pct"     validate:"omitempty,rate"`
	CustodyPctMonthly *decimal.Decimal `json:"custody_pct_monthly" validate:"omitempty,rate"`
	SpreadPctAnnual   *decimal.Decimal `json:"spread_pct_annual"   validate:"omitempty,rate"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	dto, err := h.loans.Create(c.Request().Context(), loan.CreateLoanInput(req))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.loans.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) PublishLoan(c echo.Context) error {
	dto, err := h.loans.Publish(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) MatchLoan(c echo.Context) error {
	res, err := h.matching.MatchLoan(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *LoanHandler) ListMatches(c echo.Context) error {
	out, err := h.matching.Matches(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": out})
}

func (h *LoanHandler) ReleaseLoan(c echo.Context) error {
	dto, err := h.release.ReleaseToInstitution(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
