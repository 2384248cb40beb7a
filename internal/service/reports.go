package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/report"
)

type DashboardResponse struct {
	report.Dashboard
	TopSellers      []report.ItemTotal  `json:"top_sellers"`
	TopProfitMakers []report.ItemTotal  `json:"top_profit_makers"`
	StockAlerts     []report.StockAlert `json:"stock_alerts"`
}

type TopItemsResponse struct {
	TopSellers      []report.ItemTotal `json:"top_sellers"`
	TopProfitMakers []report.ItemTotal `json:"top_profit_makers"`
}

// Dashboard returns today's KPIs and rankings with the current stock alerts. Today is
// the calendar day of the configured location.
func (s *Service) Dashboard(ctx context.Context) (DashboardResponse, error) {
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}
	now := s.now()
	start := startOfDay(now)
	end := start.AddDate(0, 0, 1)
	today := report.Filter(txs, domain.TransactionFilter{From: &start, To: &end, Status: domain.TxStatusCompleted})

	products, err := s.ProductsWithInventory(ctx)
	if err != nil {
		return DashboardResponse{}, err
	}
	alerts, err := report.StockAlerts(products)
	if err != nil {
		return DashboardResponse{}, err
	}

	return DashboardResponse{
		Dashboard:       report.DashboardFor(today, now),
		TopSellers:      report.TopSellers(today, s.topN),
		TopProfitMakers: report.TopProfitMakers(today, s.topN),
		StockAlerts:     alerts,
	}, nil
}

func (s *Service) TopItems(ctx context.Context, filter domain.TransactionFilter) (TopItemsResponse, error) {
	txs, err := s.ListTransactions(ctx, filter)
	if err != nil {
		return TopItemsResponse{}, err
	}
	return TopItemsResponse{
		TopSellers:      report.TopSellers(txs, s.topN),
		TopProfitMakers: report.TopProfitMakers(txs, s.topN),
	}, nil
}

func (s *Service) StockAlerts(ctx context.Context) ([]report.StockAlert, error) {
	products, err := s.ProductsWithInventory(ctx)
	if err != nil {
		return nil, err
	}
	return report.StockAlerts(products)
}

// TransactionReport returns the export header and rows for the filtered transactions.
func (s *Service) TransactionReport(ctx context.Context, filter domain.TransactionFilter) ([]string, [][]string, error) {
	txs, err := s.ListTransactions(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	rows, err := report.TransactionRows(txs)
	if err != nil {
		return nil, nil, err
	}
	return report.TransactionHeader, rows, nil
}

// CashUp reconciles the cash drawer for req.Date (today when empty).
func (s *Service) CashUp(ctx context.Context, req domain.CashUpRequest) (report.CashUp, error) {
	if err := checkInput(req); err != nil {
		return report.CashUp{}, err
	}
	day, err := s.parseDay(req.Date)
	if err != nil {
		return report.CashUp{}, err
	}

	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return report.CashUp{}, err
	}
	expenses, err := s.repo.Expenses(ctx)
	if err != nil {
		return report.CashUp{}, err
	}
	return report.CashUpFor(txs, expenses, day, req.Counted), nil
}

func (s *Service) ExpenseSummary(ctx context.Context, from, to *time.Time) (report.ExpenseSummary, error) {
	expenses, err := s.repo.Expenses(ctx)
	if err != nil {
		return report.ExpenseSummary{}, err
	}
	return report.ExpenseSummaryFor(expenses, from, to), nil
}

func (s *Service) parseDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.now(), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, s.loc)
	if err != nil {
		return time.Time{}, invalidf("date %q is not YYYY-MM-DD", raw)
	}
	return day, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseRange turns YYYY-MM-DD bounds into a [from, to) window in the service's
// location; to covers its whole day.
func (s *Service) ParseRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from = strings.TrimSpace(from); from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, s.loc)
		if err != nil {
			return nil, nil, invalidf("from %q is not YYYY-MM-DD", from)
		}
		start = &t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, s.loc)
		if err != nil {
			return nil, nil, invalidf("to %q is not YYYY-MM-DD", to)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, invalidf("from %s is after to %s", from, to)
	}
	return start, end, nil
}

// ParseCounted reads a counted cash amount; empty means zero.
func ParseCounted(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, invalidf("counted %q is not a number", raw)
	}
	return d, nil
}
