package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		accounts []string
		count    int
		wantErr  bool
	}{
		{name: "bank statement", data: sampleBankOFX, accounts: []string{"1234567890"}, count: 3},
		{name: "credit card statement", data: sampleCreditCardOFX, accounts: []string{"4111111111111111"}, count: 2},
		{name: "leading whitespace", data: "\n\n  " + sampleBankOFX, accounts: []string{"1234567890"}, count: 3},
		{name: "mixed case severity", data: strings.ReplaceAll(sampleBankOFX, "<SEVERITY>INFO", "<SEVERITY>Info"), accounts: []string{"1234567890"}, count: 3},
		{name: "garbage", data: "not an ofx file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := NewParser().Parse(context.Background(), strings.NewReader(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.accounts, stmt.Accounts)
			assert.Len(t, stmt.Transactions, tt.count)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 3)

	first := stmt.Transactions[0]
	assert.Equal(t, "2024011501", first.ID)
	assert.Equal(t, "1234567890", first.Account)
	assert.Equal(t, "STARBUCKS STORE #1234", first.Description)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("25.50")))
	assert.False(t, first.Inflow)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), first.Date)

	check := stmt.Transactions[2]
	assert.True(t, check.Amount.Equal(decimal.NewFromInt(500)))
}

func TestParseCreditCardTransactions(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 2)

	assert.Equal(t, "CC2024011001", stmt.Transactions[0].ID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", stmt.Transactions[0].Description)
	assert.True(t, stmt.Transactions[0].Amount.Equal(decimal.RequireFromString("45.99")))
}

func TestParseInflow(t *testing.T) {
	data := strings.Replace(sampleBankOFX, "<TRNAMT>-125.00", "<TRNAMT>2500.00", 1)
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(data))
	require.NoError(t, err)

	deposit := stmt.Transactions[1]
	assert.True(t, deposit.Inflow)
	assert.True(t, deposit.Amount.Equal(decimal.NewFromInt(2500)))
}

func TestParseCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().Parse(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMerchantName(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{name: "payee wins", tx: ofxgo.Transaction{Name: "POS PURCHASE X", Payee: &ofxgo.Payee{Name: "Coffee Co"}}, want: "Coffee Co"},
		{name: "prefix stripped", tx: ofxgo.Transaction{Name: "POS PURCHASE TARGET 123"}, want: "TARGET 123"},
		{name: "posting date stripped", tx: ofxgo.Transaction{Name: "DEBIT CARD PURCHASE 01/15 SHELL OIL"}, want: "SHELL OIL"},
		{name: "generic name uses memo", tx: ofxgo.Transaction{Name: "DEBIT", Memo: "CITY WATER"}, want: "CITY WATER"},
		{name: "generic name without memo", tx: ofxgo.Transaction{Name: "PAYMENT"}, want: "PAYMENT"},
		{name: "empty", tx: ofxgo.Transaction{}, want: "Imported transaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, merchantName(tt.tx))
		})
	}
}

func TestPreprocess(t *testing.T) {
	got := preprocess("\n<SEVERITY>Warn</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n", got)
}
