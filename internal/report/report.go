// Package report derives dashboard figures and report rows from transaction history.
// Every function is pure; reversed transactions never contribute to an aggregate.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
)

const DefaultTopN = 5

type Dashboard struct {
	Date             string          `json:"date"`
	Revenue          decimal.Decimal `json:"revenue"`
	Profit           decimal.Decimal `json:"profit"`
	Tax              decimal.Decimal `json:"tax"`
	TransactionCount int             `json:"transaction_count"`
}

// DashboardFor sums today's Completed transactions, with "today" taken in now's location.
func DashboardFor(txs []domain.Transaction, now time.Time) Dashboard {
	out := Dashboard{
		Date:    now.Format("2006-01-02"),
		Revenue: decimal.Zero,
		Profit:  decimal.Zero,
		Tax:     decimal.Zero,
	}
	for _, tx := range txs {
		if tx.Status != domain.TxStatusCompleted || !sameDay(tx.Timestamp, now) {
			continue
		}
		out.Revenue = out.Revenue.Add(tx.TotalAmount)
		out.Profit = out.Profit.Add(tx.Profit)
		out.Tax = out.Tax.Add(tx.Tax)
		out.TransactionCount++
	}
	return out
}

func sameDay(ts time.Time, day time.Time) bool {
	y1, m1, d1 := ts.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type ItemTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TopSellers ranks line items by summed line total.
func TopSellers(txs []domain.Transaction, n int) []ItemTotal {
	return rank(txs, n, func(l domain.TransactionItem) decimal.Decimal { return l.LineTotal })
}

// TopProfitMakers ranks line items by summed line total minus line cost.
func TopProfitMakers(txs []domain.Transaction, n int) []ItemTotal {
	return rank(txs, n, func(l domain.TransactionItem) decimal.Decimal { return l.LineTotal.Sub(l.LineCost) })
}

func rank(txs []domain.Transaction, n int, value func(domain.TransactionItem) decimal.Decimal) []ItemTotal {
	if n <= 0 {
		n = DefaultTopN
	}
	index := map[string]int{}
	totals := make([]ItemTotal, 0)
	for _, tx := range txs {
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		for _, line := range tx.Items {
			i, ok := index[line.Name]
			if !ok {
				i = len(totals)
				index[line.Name] = i
				totals = append(totals, ItemTotal{Name: line.Name, Amount: decimal.Zero})
			}
			totals[i].Amount = totals[i].Amount.Add(value(line))
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

type StockAlert struct {
	ProductID int                `json:"product_id"`
	Name      string             `json:"name"`
	Type      domain.ProductType `json:"type"`
	Level     int                `json:"level"`
	Threshold int                `json:"threshold"`
	Unit      string             `json:"unit"`
}

// StockAlerts flags bottles with quantityUnits <= threshold and drums with
// currentML <= threshold. Products without an inventory row are skipped.
func StockAlerts(products []domain.ProductWithInventory) ([]StockAlert, error) {
	alerts := make([]StockAlert, 0)
	for _, p := range products {
		var level int
		var unit string
		switch p.Type {
		case domain.ProductBottle:
			if p.Inventory == nil {
				continue
			}
			level, unit = p.Inventory.QuantityUnits, "units"
		case domain.ProductDrum:
			if p.Inventory == nil {
				continue
			}
			level, unit = p.Inventory.CurrentML, "ml"
		case domain.ProductPour:
			continue
		default:
			return nil, fmt.Errorf("product %d: %w: %q", p.ID, domain.ErrUnknownProductType, p.Type)
		}
		if level <= p.ThresholdQuantity {
			alerts = append(alerts, StockAlert{
				ProductID: p.ID,
				Name:      p.Name,
				Type:      p.Type,
				Level:     level,
				Threshold: p.ThresholdQuantity,
				Unit:      unit,
			})
		}
	}
	return alerts, nil
}

// GroupedItem is the summed quantity of one display group. Quantity counts units for
// bottle groups; VolumeML holds the summed millilitres for pour groups.
type GroupedItem struct {
	Name     string             `json:"name"`
	Type     domain.ProductType `json:"type"`
	Quantity int                `json:"quantity"`
	VolumeML int                `json:"volume_ml"`
}

// GroupItems groups lines in first-seen order. Unit lines group by name; pour lines
// group by the drum they drew from and keep the first-seen name.
func GroupItems(lines []domain.TransactionItem) ([]GroupedItem, error) {
	index := map[string]int{}
	groups := make([]GroupedItem, 0, len(lines))
	for _, line := range lines {
		var key string
		switch line.Type {
		case domain.ProductBottle, domain.ProductDrum:
			key = "unit:" + line.Name
		case domain.ProductPour:
			key = "pour:" + line.Name
			if line.DrumID > 0 {
				key = fmt.Sprintf("drum:%d", line.DrumID)
			}
		default:
			return nil, fmt.Errorf("line %q: %w: %q", line.Name, domain.ErrUnknownProductType, line.Type)
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, GroupedItem{Name: line.Name, Type: line.Type})
		}
		if line.Type == domain.ProductPour {
			groups[i].VolumeML += line.VolumeML()
		} else {
			groups[i].Quantity += line.Quantity
		}
	}
	return groups, nil
}

// FormatGroupedItems renders groups as "2x Guinness, Whiskey (1/2L): 2.0L".
func FormatGroupedItems(groups []GroupedItem) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Type == domain.ProductPour {
			parts = append(parts, fmt.Sprintf("%s: %s", g.Name, domain.FormatVolume(g.VolumeML)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx %s", g.Quantity, g.Name))
	}
	return strings.Join(parts, ", ")
}

// Filter keeps transactions inside [From, To) that match every non-empty criterion.
func Filter(txs []domain.Transaction, f domain.TransactionFilter) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.From != nil && tx.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && !tx.Timestamp.Before(*f.To) {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		if f.PaymentMethod != "" && !strings.EqualFold(tx.PaymentMethod, f.PaymentMethod) {
			continue
		}
		if f.UserID != 0 && tx.UserID != f.UserID {
			continue
		}
		out = append(out, tx)
	}
	return out
}
