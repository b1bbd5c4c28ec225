package model

// Well-known category ids.
const (
	CategorySavingsID  = "cat-7"
	CategoryOtherID    = "cat-8"
	CategoryLoanID     = "cat-loan"
	CategoryTransferID = "cat-transfer"
)

// Category groups transactions, budgets and bills.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultCategories returns the categories every new ledger starts with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-1", Name: "Food"},
		{ID: "cat-2", Name: "Transport"},
		{ID: "cat-3", Name: "Bills"},
		{ID: "cat-4", Name: "Entertainment"},
		{ID: "cat-5", Name: "Shopping"},
		{ID: "cat-6", Name: "Health"},
		{ID: CategorySavingsID, Name: "Savings"},
		{ID: CategoryOtherID, Name: "Other"},
		{ID: CategoryLoanID, Name: "Loan Payment"},
		{ID: CategoryTransferID, Name: "Transfer"},
	}
}

// IsProtectedCategory reports whether a category can never be deleted.
func IsProtectedCategory(id string) bool {
	return id == CategoryTransferID || id == CategoryLoanID
}
