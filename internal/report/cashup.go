package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
)

type CashUp struct {
	Date             string          `json:"date"`
	CashSales        decimal.Decimal `json:"cash_sales"`
	MpesaSales       decimal.Decimal `json:"mpesa_sales"`
	CardSales        decimal.Decimal `json:"card_sales"`
	CashExpenses     decimal.Decimal `json:"cash_expenses"`
	ExpectedCash     decimal.Decimal `json:"expected_cash"`
	Counted          decimal.Decimal `json:"counted"`
	Variance         decimal.Decimal `json:"variance"`
	TransactionCount int             `json:"transaction_count"`
	ReversedCount    int             `json:"reversed_count"`
}

// CashUpFor reconciles the drawer for day: expected cash is Completed cash sales less
// cash expenses of the same day, and variance is counted minus expected.
func CashUpFor(txs []domain.Transaction, expenses []domain.Expense, day time.Time, counted decimal.Decimal) CashUp {
	out := CashUp{
		Date:         day.Format("2006-01-02"),
		CashSales:    decimal.Zero,
		MpesaSales:   decimal.Zero,
		CardSales:    decimal.Zero,
		CashExpenses: decimal.Zero,
		Counted:      counted,
	}
	for _, tx := range txs {
		if !sameDay(tx.Timestamp, day) {
			continue
		}
		if tx.Status == domain.TxStatusReversed {
			out.ReversedCount++
			continue
		}
		out.TransactionCount++
		switch tx.PaymentMethod {
		case domain.PaymentCash:
			out.CashSales = out.CashSales.Add(tx.TotalAmount)
		case domain.PaymentMpesa:
			out.MpesaSales = out.MpesaSales.Add(tx.TotalAmount)
		case domain.PaymentCard:
			out.CardSales = out.CardSales.Add(tx.TotalAmount)
		}
	}
	for _, e := range expenses {
		if e.PaymentMethod == domain.PaymentCash && sameDay(e.Date, day) {
			out.CashExpenses = out.CashExpenses.Add(e.Amount)
		}
	}
	out.ExpectedCash = out.CashSales.Sub(out.CashExpenses)
	out.Variance = counted.Sub(out.ExpectedCash)
	return out
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

type ExpenseSummary struct {
	Total      decimal.Decimal `json:"total"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// ExpenseSummaryFor totals expenses dated inside [from, to), biggest category first.
func ExpenseSummaryFor(expenses []domain.Expense, from, to *time.Time) ExpenseSummary {
	out := ExpenseSummary{Total: decimal.Zero, ByCategory: []CategoryTotal{}}
	index := map[string]int{}
	for _, e := range expenses {
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && !e.Date.Before(*to) {
			continue
		}
		category := e.Category
		if category == "" {
			category = "Uncategorized"
		}
		i, ok := index[category]
		if !ok {
			i = len(out.ByCategory)
			index[category] = i
			out.ByCategory = append(out.ByCategory, CategoryTotal{Category: category, Amount: decimal.Zero})
		}
		out.ByCategory[i].Amount = out.ByCategory[i].Amount.Add(e.Amount)
		out.ByCategory[i].Count++
		out.Total = out.Total.Add(e.Amount)
	}
	sort.SliceStable(out.ByCategory, func(i, j int) bool {
		return out.ByCategory[i].Amount.GreaterThan(out.ByCategory[j].Amount)
	})
	return out
}
