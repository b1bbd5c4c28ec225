package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
)

// apply runs a ledger mutation and writes its result. A nil result
// answers 204.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, status int, fn func(b *ledger.Book) (any, *ledger.State, error)) {
	ws := workspaceFrom(r.Context())
	var out any
	_, err := ws.Mutate(r.Context(), func(b *ledger.Book) (*ledger.State, error) {
		v, state, err := fn(b)
		out = v
		return state, err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, status, out)
}

// applyState is apply for mutations with no result value.
func (s *Server) applyState(w http.ResponseWriter, r *http.Request, fn func(b *ledger.Book) (*ledger.State, error)) {
	s.apply(w, r, http.StatusNoContent, func(b *ledger.Book) (any, *ledger.State, error) {
		state, err := fn(b)
		return nil, state, err
	})
}

// decodeInto decodes the body and, on failure, writes a 400.
func (s *Server) decodeInto(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decode(r, v); err != nil {
		s.writeError(w, err)
		return false
	}
	return true
}

type accountRequest struct {
	InterestRate *decimal.Decimal `json:"interestRate,omitempty"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Balance      decimal.Decimal  `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Accounts)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	typ, err := model.ParseAccountType(req.Type)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddAccount(ledger.NewAccount{
			Name:           req.Name,
			Type:           typ,
			InitialBalance: req.Balance,
			InterestRate:   req.InterestRate,
		})
	})
}

func (s *Server) handleEditAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	typ, err := model.ParseAccountType(req.Type)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditAccount(model.Account{
			ID:           chi.URLParam(r, "id"),
			Name:         req.Name,
			Type:         typ,
			Balance:      req.Balance,
			InterestRate: req.InterestRate,
		})
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteAccount(chi.URLParam(r, "id"))
	})
}

// handleListTransactions supports ?account=, ?category= and ?limit=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	account, category := q.Get("account"), q.Get("category")
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	out := []model.Transaction{}
	for _, t := range workspaceFrom(r.Context()).State().Transactions {
		if account != "" && t.AccountID != account && t.ToAccountID != account {
			continue
		}
		if category != "" && t.CategoryID != category {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var t model.Transaction
	if !s.decodeInto(w, r, &t) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddTransaction(t)
	})
}

func (s *Server) handleAddTransactions(w http.ResponseWriter, r *http.Request) {
	var drafts []model.Transaction
	if !s.decodeInto(w, r, &drafts) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddTransactions(drafts)
	})
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var t model.Transaction
	if !s.decodeInto(w, r, &t) {
		return
	}
	t.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditTransaction(t)
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteTransaction(chi.URLParam(r, "id"))
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Categories)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddCategory(req.Name)
	})
}

func (s *Server) handleEditCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditCategory(model.Category{ID: chi.URLParam(r, "id"), Name: req.Name})
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteCategory(chi.URLParam(r, "id"))
	})
}

type amountRequest struct {
	FromAccountID string          `json:"fromAccountId"`
	Amount        decimal.Decimal `json:"amount"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	writeJSON(w, http.StatusOK, metrics.Budgets(ws.State(), ws.Now()))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.apply(w, r, http.StatusOK, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.SetBudget(chi.URLParam(r, "categoryID"), req.Amount)
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteBudget(chi.URLParam(r, "id"))
	})
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Recurring)
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var rule model.RecurringTransaction
	if !s.decodeInto(w, r, &rule) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddRecurring(rule)
	})
}

func (s *Server) handleEditRecurring(w http.ResponseWriter, r *http.Request) {
	var rule model.RecurringTransaction
	if !s.decodeInto(w, r, &rule) {
		return
	}
	rule.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditRecurring(rule)
	})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteRecurring(chi.URLParam(r, "id"))
	})
}

func (s *Server) handleCatchUp(w http.ResponseWriter, r *http.Request) {
	added, err := workspaceFrom(r.Context()).CatchUp(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if added == nil {
		added = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, added)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Goals)
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var g model.Goal
	if !s.decodeInto(w, r, &g) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddGoal(g)
	})
}

func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
	var g model.Goal
	if !s.decodeInto(w, r, &g) {
		return
	}
	g.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditGoal(g)
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteGoal(chi.URLParam(r, "id"))
	})
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.ContributeToGoal(chi.URLParam(r, "id"), req.Amount, req.FromAccountID)
	})
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Bills)
}

func (s *Server) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var bill model.Bill
	if !s.decodeInto(w, r, &bill) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddBill(bill)
	})
}

func (s *Server) handleEditBill(w http.ResponseWriter, r *http.Request) {
	var bill model.Bill
	if !s.decodeInto(w, r, &bill) {
		return
	}
	bill.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditBill(bill)
	})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteBill(chi.URLParam(r, "id"))
	})
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.PayBill(chi.URLParam(r, "id"), req.FromAccountID)
	})
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workspaceFrom(r.Context()).State().Loans)
}

func (s *Server) handleAddLoan(w http.ResponseWriter, r *http.Request) {
	var l model.Loan
	if !s.decodeInto(w, r, &l) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddLoan(l)
	})
}

func (s *Server) handleEditLoan(w http.ResponseWriter, r *http.Request) {
	var l model.Loan
	if !s.decodeInto(w, r, &l) {
		return
	}
	l.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditLoan(l)
	})
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteLoan(chi.URLParam(r, "id"))
	})
}

type loanPaymentResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Interest    decimal.Decimal   `json:"interest"`
	Principal   decimal.Decimal   `json:"principal"`
}

func (s *Server) handlePayLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !s.decodeInto(w, r, &req) {
		return
	}
	s.apply(w, r, http.StatusOK, func(b *ledger.Book) (any, *ledger.State, error) {
		p, state, err := b.PayLoan(chi.URLParam(r, "id"), req.Amount, req.FromAccountID)
		if err != nil {
			return nil, state, err
		}
		return loanPaymentResponse{Transaction: p.Transaction, Interest: p.Interest, Principal: p.Principal}, state, nil
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Value(workspaceFrom(r.Context()).State().Holdings, metrics.MockPrices{}))
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	var h model.InvestmentHolding
	if !s.decodeInto(w, r, &h) {
		return
	}
	s.apply(w, r, http.StatusCreated, func(b *ledger.Book) (any, *ledger.State, error) {
		return b.AddHolding(h)
	})
}

func (s *Server) handleEditHolding(w http.ResponseWriter, r *http.Request) {
	var h model.InvestmentHolding
	if !s.decodeInto(w, r, &h) {
		return
	}
	h.ID = chi.URLParam(r, "id")
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.EditHolding(h)
	})
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	s.applyState(w, r, func(b *ledger.Book) (*ledger.State, error) {
		return b.DeleteHolding(chi.URLParam(r, "id"))
	})
}
