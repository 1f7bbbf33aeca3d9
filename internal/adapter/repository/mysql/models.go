package mysql

import (
	"edu-lending-core/internal/domain/custody"
	"edu-lending-core/internal/domain/fee"
	"edu-lending-core/internal/domain/installment"
	"edu-lending-core/internal/domain/ledger"
	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/offer"
)

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&ledger.Account{}, &ledger.Entry{},
		&loan.Loan{}, &offer.Offer{}, &offer.Match{},
		&custody.Account{}, &custody.Transaction{},
		&installment.Installment{}, &fee.LoanFee{},
	}
}
