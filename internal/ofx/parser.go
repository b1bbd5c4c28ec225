// Package ofx reads OFX/QFX bank statements into external transactions
// ready for a ledger bulk import.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/service"
)

// Source names OFX in import bookkeeping.
const Source = "ofx"

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagRe  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is everything read from one OFX file.
type Statement struct {
	Accounts     []string
	Transactions []service.ExternalTransaction
}

// Parser reads OFX files.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{logger: slog.Default().With("component", "ofx")}
}

// preprocess repairs formatting that banks commonly get wrong.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	// SGML files sometimes drop the closing bracket on bare opening tags.
	return openTagRe.ReplaceAllString(content, "$1>")
}

// Parse reads bank and credit card statements from r.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Statement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	seen := make(map[string]bool)
	addAccount := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			stmt.Accounts = append(stmt.Accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		acct := string(bank.BankAcctFrom.AcctID)
		addAccount(acct)
		stmt.Transactions = append(stmt.Transactions, p.convertList(bank.BankTranList, acct)...)
	}

	for _, msg := range resp.CreditCard {
		cc, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		acct := string(cc.CCAcctFrom.AcctID)
		addAccount(acct)
		stmt.Transactions = append(stmt.Transactions, p.convertList(cc.BankTranList, acct)...)
	}

	slices.Sort(stmt.Accounts)
	p.logger.Info("Parsed OFX file",
		"transactions", len(stmt.Transactions),
		"accounts", len(stmt.Accounts))

	return stmt, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList, account string) []service.ExternalTransaction {
	if list == nil {
		return nil
	}
	out := make([]service.ExternalTransaction, 0, len(list.Transactions))
	for _, tx := range list.Transactions {
		ext, err := convert(tx, account)
		if err != nil {
			p.logger.Warn("Skipping OFX transaction", "fitid", tx.FiTID, "error", err)
			continue
		}
		out = append(out, ext)
	}
	return out
}

// convert maps one OFX transaction. OFX signs debits negative.
func convert(tx ofxgo.Transaction, account string) (service.ExternalTransaction, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.Rat.FloatString(2))
	if err != nil {
		return service.ExternalTransaction{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsZero() {
		return service.ExternalTransaction{}, fmt.Errorf("zero amount")
	}
	return service.ExternalTransaction{
		ID:          string(tx.FiTID),
		Date:        tx.DtPosted.Time.UTC(),
		Account:     account,
		Description: merchantName(tx),
		Amount:      amount.Abs(),
		Inflow:      amount.IsPositive(),
	}, nil
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// merchantName prefers PAYEE, then NAME, then MEMO when NAME is generic.
func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGeneric(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	if name == "" {
		name = "Imported transaction"
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
