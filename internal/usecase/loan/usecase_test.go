package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu-lending-core/internal/domain/errs"
	domain "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/testutil/loanmock"
	"edu-lending-core/internal/testutil/uowmock"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	borrowerID    = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	institutionID = "cccccccccccccccccccccccccccccccc"
	loanID        = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var testDefaults = Defaults{
	OriginationPct:    money.Must("0.015"),
	MarketplacePct:    money.Must("0.005"),
	CustodyPctMonthly: money.Must("0.0005"),
	SpreadPctAnnual:   money.Must("0.02"),
	MaxFraudSeverity:  7,
}

type stubCredit struct {
	profile *domain.CreditProfile
	err     error
	calls   int
}

func (s *stubCredit) GetCreditProfile(context.Context, string) (*domain.CreditProfile, error) {
	s.calls++
	return s.profile, s.err
}

func validInput() CreateLoanInput {
	return CreateLoanInput{
		BorrowerID:    borrowerID,
		InstitutionID: institutionID,
		Amount:        money.Must("5000"),
		TermMonths:    12,
		MonthlyRate:   money.Must("0.02"),
	}
}

func TestCreate_Success_NoPendingLoan(t *testing.T) {
	var created *domain.Loan
	uc := NewUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(context.Context, string) (*domain.Loan, error) {
			return nil, gorm.ErrRecordNotFound
		},
		CreateFn: func(_ context.Context, l *domain.Loan) error {
			created = l
			return nil
		},
	}, nil, nil, testDefaults, nil)

	override := money.Must("0.01")
	in := validInput()
	in.OriginationPct = &override

	dto, err := uc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if len(dto.LoanID) != 32 {
		t.Fatalf("LoanID length: %d", len(dto.LoanID))
	}
	if dto.Status != string(domain.StatusPending) {
		t.Fatalf("status=%s", dto.Status)
	}
	if !created.OriginationPct.Equal(override) {
		t.Fatalf("origination pct = %s, want override", created.OriginationPct)
	}
	if !created.MarketplacePct.Equal(testDefaults.MarketplacePct) || !created.SpreadPctAnnual.Equal(testDefaults.SpreadPctAnnual) {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if !created.AmountFunded.IsZero() {
		t.Fatalf("amount funded = %s", created.AmountFunded)
	}
}

func TestCreate_Rejects_WhenPendingLoanExists(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(_ context.Context, id string) (*domain.Loan, error) {
			if id != borrowerID {
				t.Fatalf("unexpected borrower id: %s", id)
			}
			return &domain.Loan{LoanID: loanID, BorrowerID: borrowerID, Status: domain.StatusPending}, nil
		},
		CreateFn: func(context.Context, *domain.Loan) error {
			t.Fatalf("Create must not be called when a pending loan exists")
			return nil
		},
	}, nil, nil, testDefaults, nil)

	_, err := uc.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrPendingExists) {
		t.Fatalf("want ErrPendingExists, got %v", err)
	}
	if errs.KindOf(err) != errs.KindInvalidState {
		t.Fatalf("kind = %s", errs.KindOf(err))
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	tooPrecise := money.Must("0.00015")
	tests := []struct {
		name string
		mut  func(*CreateLoanInput)
		kind errs.Kind
	}{
		{"short borrower", func(in *CreateLoanInput) { in.BorrowerID = "short" }, errs.KindInvalidInput},
		{"missing institution", func(in *CreateLoanInput) { in.InstitutionID = "" }, errs.KindInvalidInput},
		{"zero amount", func(in *CreateLoanInput) { in.Amount = decimal.Zero }, errs.KindInvalidAmount},
		{"sub-cent amount", func(in *CreateLoanInput) { in.Amount = money.Must("10.001") }, errs.KindInvalidAmount},
		{"zero term", func(in *CreateLoanInput) { in.TermMonths = 0 }, errs.KindInvalidInput},
		{"rate of one", func(in *CreateLoanInput) { in.MonthlyRate = decimal.NewFromInt(1) }, errs.KindInvalidInput},
		{"negative rate", func(in *CreateLoanInput) { in.MonthlyRate = money.Must("-0.01") }, errs.KindInvalidInput},
		{"pct too precise", func(in *CreateLoanInput) { in.CustodyPctMonthly = &tooPrecise }, errs.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUsecase(&loanmock.Repo{}, nil, nil, testDefaults, nil)
			in := validInput()
			tt.mut(&in)
			_, err := uc.Create(context.Background(), in)
			if errs.KindOf(err) != tt.kind {
				t.Fatalf("want %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestGet(t *testing.T) {
	now := time.Now().UTC()
	uc := NewUsecase(&loanmock.Repo{
		GetByLoanIDFn: func(_ context.Context, id string) (*domain.Loan, error) {
			if id != loanID {
				return nil, domain.ErrNotFound
			}
			return &domain.Loan{
				LoanID: loanID, BorrowerID: borrowerID,
				Amount: money.Must("1000"), MonthlyRate: money.Must("0.02"),
				Status: domain.StatusOpen, CreatedAt: now,
			}, nil
		},
	}, nil, nil, testDefaults, nil)

	dto, err := uc.Get(context.Background(), loanID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if dto.LoanID != loanID || dto.Status != "open" {
		t.Fatalf("got %+v", dto)
	}
	if _, err := uc.Get(context.Background(), "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestUsecase_Publish(t *testing.T) {
	pendingLoan := func() *domain.Loan {
		return &domain.Loan{ID: 1, LoanID: loanID, BorrowerID: borrowerID, Status: domain.StatusPending}
	}

	tests := []struct {
		name      string
		profile   *domain.CreditProfile
		creditErr error
		status    domain.Status
		wantErr   error
		wantSaved bool
	}{
		{
			name:      "eligible pending -> open",
			profile:   &domain.CreditProfile{Score: 720, RiskBand: "B", FraudSeverity: 1},
			status:    domain.StatusPending,
			wantSaved: true,
		},
		{
			name:    "risk band E",
			profile: &domain.CreditProfile{Score: 400, RiskBand: "E"},
			status:  domain.StatusPending,
			wantErr: domain.ErrIneligible,
		},
		{
			name:    "fraud severity at threshold",
			profile: &domain.CreditProfile{Score: 700, RiskBand: "A", FraudSeverity: 7},
			status:  domain.StatusPending,
			wantErr: domain.ErrIneligible,
		},
		{
			name:    "already open",
			status:  domain.StatusOpen,
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:      "scoring unavailable",
			creditErr: errors.New("breaker open"),
			status:    domain.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := false
			loans := &loanmock.Repo{
				GetByLoanIDFn: func(context.Context, string) (*domain.Loan, error) {
					l := pendingLoan()
					l.Status = tt.status
					return l, nil
				},
				GetByLoanIDForUpdateFn: func(context.Context, string) (*domain.Loan, error) {
					return pendingLoan(), nil
				},
				SaveFn: func(_ context.Context, l *domain.Loan) error {
					if l.Status != domain.StatusOpen {
						t.Fatalf("saved status = %s", l.Status)
					}
					saved = true
					return nil
				},
			}
			credit := &stubCredit{profile: tt.profile, err: tt.creditErr}
			tx := uowmock.Over(uow.Repos{Loans: loans})
			uc := NewUsecase(loans, tx, credit, testDefaults, nil)

			dto, err := uc.Publish(context.Background(), loanID)
			switch {
			case tt.creditErr != nil:
				if !errors.Is(err, tt.creditErr) {
					t.Fatalf("want credit error, got %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				if dto.Status != "open" {
					t.Fatalf("status = %s", dto.Status)
				}
			}
			if saved != tt.wantSaved {
				t.Fatalf("saved = %v, want %v", saved, tt.wantSaved)
			}
			if tt.status != domain.StatusPending && credit.calls != 0 {
				t.Fatal("scoring service consulted for a non-pending loan")
			}
		})
	}
}

func TestPublish_RaceLostUnderLock(t *testing.T) {
	loans := &loanmock.Repo{
		GetByLoanIDFn: func(context.Context, string) (*domain.Loan, error) {
			return &domain.Loan{LoanID: loanID, BorrowerID: borrowerID, Status: domain.StatusPending}, nil
		},
		GetByLoanIDForUpdateFn: func(context.Context, string) (*domain.Loan, error) {
			return &domain.Loan{LoanID: loanID, BorrowerID: borrowerID, Status: domain.StatusOpen}, nil
		},
	}
	credit := &stubCredit{profile: &domain.CreditProfile{Score: 800, RiskBand: "A"}}
	tx := uowmock.Over(uow.Repos{Loans: loans})

	_, err := NewUsecase(loans, tx, credit, testDefaults, nil).Publish(context.Background(), loanID)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if tx.Commits != 0 {
		t.Fatalf("commits = %d", tx.Commits)
	}
}
