package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindApply(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name    string
		kind    Kind
		typ     TransactionType
		balance string
		amount  string
		want    string
	}{
		{"asset income", Asset, TransactionIncome, "1000", "50", "1050"},
		{"asset expense", Asset, TransactionExpense, "1000", "50", "950"},
		{"liability expense raises debt", Liability, TransactionExpense, "0", "100", "100"},
		{"liability income pays down", Liability, TransactionIncome, "100", "40", "60"},
		{"transfer is not single sided", Asset, TransactionTransfer, "10", "5", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.kind, d(tt.balance), d(tt.amount), tt.typ)
			assert.True(t, d(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestAccountTypeKind(t *testing.T) {
	assert.Equal(t, Liability, AccountCreditCard.Kind())
	for _, typ := range []AccountType{AccountChecking, AccountSavings, AccountCash, AccountInvestment} {
		assert.Equal(t, Asset, typ.Kind(), typ)
	}
}

func TestParseAccountType(t *testing.T) {
	typ, err := ParseAccountType("credit-card")
	require.NoError(t, err)
	assert.Equal(t, AccountCreditCard, typ)

	_, err = ParseAccountType("piggy bank")
	assert.Error(t, err)
}

func TestBillDueDateClampsToMonthLength(t *testing.T) {
	bill := Bill{DueDay: 31}
	feb := time.Date(2025, time.February, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), bill.DueDate(feb))

	paid := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	bill.LastPaidDate = &paid
	assert.True(t, bill.PaidIn(feb))
	assert.False(t, bill.PaidIn(feb.AddDate(0, 1, 0)))
}

func TestLoanSplitPayment(t *testing.T) {
	loan := Loan{
		CurrentBalance: decimal.NewFromInt(12000),
		InterestRate:   decimal.NewFromInt(6),
	}
	interest, principal := loan.SplitPayment(decimal.NewFromInt(500))
	assert.Equal(t, "60", interest.String())
	assert.Equal(t, "440", principal.String())
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12.5", "$12.50"},
		{"1234.567", "$1,234.57"},
		{"-1000000", "-$1,000,000.00"},
		{"999", "$999.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(decimal.RequireFromString(tt.in)), tt.in)
	}
}
