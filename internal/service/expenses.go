package service

import (
	"context"
	"strings"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/xid"
)

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.Expenses(ctx)
}

// SaveExpense creates an expense when in.ID is nil and merges in over an existing
// one otherwise.
func (s *Service) SaveExpense(ctx context.Context, in domain.ExpenseInput) (domain.Expense, error) {
	if err := checkInput(in); err != nil {
		return domain.Expense{}, err
	}
	actor, _ := ActorFromContext(ctx)

	var saved domain.Expense
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		expenses, err := s.repo.Expenses(ctx)
		if err != nil {
			return err
		}

		if in.ID == nil {
			if in.Description == nil || strings.TrimSpace(*in.Description) == "" || in.Amount == nil {
				return invalidf("description and amount are required")
			}
			saved = domain.Expense{
				ID:            xid.New("exp"),
				Date:          s.now(),
				PaymentMethod: domain.PaymentCash,
				UserID:        actor.UserID,
			}
			mergeExpense(&saved, in)
			expenses = append(expenses, saved)
		} else {
			idx := indexOf(expenses, func(e domain.Expense) bool { return e.ID == *in.ID })
			if idx < 0 {
				return notFoundf("expense %s", *in.ID)
			}
			mergeExpense(&expenses[idx], in)
			saved = expenses[idx]
		}
		return s.repo.SaveExpenses(ctx, expenses)
	})
	return saved, err
}

func mergeExpense(e *domain.Expense, in domain.ExpenseInput) {
	if in.Date != nil {
		e.Date = in.Date.UTC()
	}
	if in.Description != nil {
		e.Description = strings.TrimSpace(*in.Description)
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		e.Category = strings.TrimSpace(*in.Category)
	}
	if in.PaymentMethod != nil {
		e.PaymentMethod = *in.PaymentMethod
	}
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	return s.repo.Update(ctx, func(ctx context.Context) error {
		expenses, err := s.repo.Expenses(ctx)
		if err != nil {
			return err
		}
		idx := indexOf(expenses, func(e domain.Expense) bool { return e.ID == id })
		if idx < 0 {
			return notFoundf("expense %s", id)
		}
		return s.repo.SaveExpenses(ctx, append(expenses[:idx], expenses[idx+1:]...))
	})
}
