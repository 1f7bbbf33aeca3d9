package http

import (
	"net/http"

	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/usecase/offer"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offers *offer.Usecase
	log    *zap.Logger
}

func NewOfferHandler(offers *offer.Usecase, log *zap.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, log: logging.OrNop(log)}
}

type createOfferReq struct {
	InvestorID string          `json:"investor_id" validate:"required,hex32"`
	Amount     decimal.Decimal `json:"amount"      validate:"money"`
	TermMonths int             `json:"term_months" validate:"gte=1,lte=360"`
	MinRate    decimal.Decimal `json:"min_rate"    validate:"rate"`
}

func (h *OfferHandler) CreateOffer(c echo.Context) error {
	var req createOfferReq
	if err := bind(c, &req); err != nil {
		return nil
	}
	dto, err := h.offers.Create(c.Request().Context(), offer.CreateOfferInput(req))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *OfferHandler) GetOffer(c echo.Context) error {
	dto, err := h.offers.Get(c.Request().Context(), c.Param("offer_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
