package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
)

func (b *Book) validateCategoryName(s *State, id, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category name is required", ErrInvalid)
	}
	for _, c := range s.Categories {
		if c.ID != id && strings.EqualFold(c.Name, name) {
			return "", fmt.Errorf("%w: category %q already exists", ErrInvalid, name)
		}
	}
	return name, nil
}

// AddCategory creates a category.
func (b *Book) AddCategory(name string) (model.Category, *State, error) {
	var cat model.Category
	state, err := b.commit(func(s *State) error {
		clean, err := b.validateCategoryName(s, "", name)
		if err != nil {
			return err
		}
		cat = model.Category{ID: b.newID(), Name: clean}
		s.Categories = append(s.Categories, cat)
		return nil
	})
	if err != nil {
		return model.Category{}, state, fmt.Errorf("adding category: %w", err)
	}
	return cat, state, nil
}

// EditCategory renames a category.
func (b *Book) EditCategory(updated model.Category) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Categories, updated.ID, categoryID)
		if i < 0 {
			return fmt.Errorf("category %s: %w", updated.ID, ErrNotFound)
		}
		clean, err := b.validateCategoryName(s, updated.ID, updated.Name)
		if err != nil {
			return err
		}
		s.Categories[i].Name = clean
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing category: %w", err)
	}
	return state, nil
}

func categoryReferences(s *State, id string) []string {
	var refs []string
	for _, t := range s.Transactions {
		if t.CategoryID == id {
			refs = append(refs, "transactions")
			break
		}
	}
	for _, bud := range s.Budgets {
		if bud.CategoryID == id {
			refs = append(refs, "budgets")
			break
		}
	}
	for _, r := range s.Recurring {
		if r.CategoryID == id {
			refs = append(refs, "recurring transactions")
			break
		}
	}
	for _, bill := range s.Bills {
		if bill.CategoryID == id {
			refs = append(refs, "bills")
			break
		}
	}
	return refs
}

// DeleteCategory removes an unused category. The transfer and loan
// categories are never deletable.
func (b *Book) DeleteCategory(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		if model.IsProtectedCategory(id) {
			return fmt.Errorf("%w: %s is required by the ledger", ErrProtectedCategory, id)
		}
		i := indexOf(s.Categories, id, categoryID)
		if i < 0 {
			return fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		if refs := categoryReferences(s, id); len(refs) > 0 {
			return fmt.Errorf("%w: category %q is used by %s", ErrInUse, s.Categories[i].Name, strings.Join(refs, ", "))
		}
		s.Categories = append(s.Categories[:i], s.Categories[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting category: %w", err)
	}
	return state, nil
}
