package offer

import (
	"context"
	"fmt"

	"edu-lending-core/internal/domain/errs"
	"edu-lending-core/internal/domain/offer"
	"edu-lending-core/pkg/id"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidInput = fmt.Errorf("offer request: %w", errs.ErrInvalidInput)

type Usecase struct {
	repo offer.Repository
	log  *zap.Logger
}

func NewUsecase(r offer.Repository, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, log: log}
}

// Create queues a new offer. Its place in the matching queue is its creation time.
func (u *Usecase) Create(ctx context.Context, in CreateOfferInput) (*OfferDTO, error) {
	if !id.Valid(in.InvestorID) || in.TermMonths < 1 {
		return nil, ErrInvalidInput
	}
	if !money.Positive(in.Amount) {
		return nil, fmt.Errorf("offer amount %s: %w", in.Amount, errs.ErrInvalidAmount)
	}
	if in.MinRate.IsNegative() || !in.MinRate.LessThan(decimal.NewFromInt(1)) || !in.MinRate.Equal(in.MinRate.Round(money.RateScale)) {
		return nil, ErrInvalidInput
	}

	o := &offer.Offer{
		OfferID:         id.NewID32(),
		InvestorID:      in.InvestorID,
		AmountAvailable: in.Amount,
		TermMonths:      in.TermMonths,
		MinRate:         in.MinRate,
	}
	if err := u.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	u.log.Info("offer created",
		zap.String("offer_id", o.OfferID),
		zap.String("investor_id", o.InvestorID),
		zap.String("amount", o.AmountAvailable.StringFixed(2)))
	dto := toDTO(o)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, offerID string) (*OfferDTO, error) {
	o, err := u.repo.GetByOfferID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(o)
	return &dto, nil
}

func toDTO(o *offer.Offer) OfferDTO {
	return OfferDTO{
		OfferID:         o.OfferID,
		InvestorID:      o.InvestorID,
		AmountAvailable: o.AmountAvailable,
		TermMonths:      o.TermMonths,
		MinRate:         o.MinRate,
		CreatedAt:       o.CreatedAt,
	}
}
