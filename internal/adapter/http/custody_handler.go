package http

import (
	"net/http"

	"edu-lending-core/internal/adapter/middleware"
	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CustodyHandler struct {
	custody *custody.Usecase
	ledger  *ledger.Usecase
	log     *zap.Logger
}

func NewCustodyHandler(c *custody.Usecase, l *ledger.Usecase, log *zap.Logger) *CustodyHandler {
	return &CustodyHandler{custody: c, ledger: l, log: logging.OrNop(log)}
}

type depositReq struct {
	Amount decimal.Decimal `json:"amount" validate:"money"`
	Method string          `json:"method" validate:"required,max=16"`
}

// Deposit records money arriving from outside. The request id doubles as the
// reference tag so a replay cannot post twice.
func (h *CustodyHandler) Deposit(c echo.Context) error {
	var req depositReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	dto, err := h.custody.Deposit(c.Request().Context(), custody.DepositInput{
		CustodyID:    c.Param("custody_id"),
		Amount:       req.Amount,
		Method:       req.Method,
		ReferenceTag: depositRef(middleware.RequestID(c)),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type transferReq struct {
	FromCustodyID string          `json:"from_custody_id" validate:"required,hex32"`
	ToCustodyID   string          `json:"to_custody_id"   validate:"required,hex32,nefield=FromCustodyID"`
	Amount        decimal.Decimal `json:"amount"          validate:"money"`
}

func (h *CustodyHandler) Transfer(c echo.Context) error {
	var req transferReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	dto, err := h.custody.Transfer(c.Request().Context(), custody.TransferInput{
		FromCustodyID: req.FromCustodyID,
		ToCustodyID:   req.ToCustodyID,
		Amount:        req.Amount,
		ReferenceTag:  transferRef(middleware.RequestID(c)),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CustodyHandler) GetAccount(c echo.Context) error {
	dto, err := h.custody.Get(c.Request().Context(), c.Param("custody_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Reconcile answers 200 with consistent=false when the snapshot has drifted.
func (h *CustodyHandler) Reconcile(c echo.Context) error {
	dto, err := h.custody.Reconcile(c.Request().Context(), c.Param("custody_id"))
	if dto != nil {
		return c.JSON(http.StatusOK, dto)
	}
	return fail(c, h.log, err)
}

func (h *CustodyHandler) Balance(c echo.Context) error {
	dto, err := h.ledger.BalanceOf(c.Request().Context(), c.Param("account_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func depositRef(reqID string) string {
	if reqID == "" {
		return ""
	}
	return "deposit:" + reqID
}

func transferRef(reqID string) string {
	if reqID == "" {
		return ""
	}
	return "transfer:" + reqID
}
