package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/report"
	"galaxyinn/backend/internal/store"
	"galaxyinn/backend/internal/xid"
)

// Checkout is the guarded entry to SaveTransaction used by the HTTP layer: the order
// must be non-empty and the payment method known. The acting user records the sale.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Transaction, error) {
	if err := checkInput(req); err != nil {
		return domain.Transaction{}, err
	}
	if len(req.Items) == 0 {
		return domain.Transaction{}, invalidf("order is empty")
	}
	actor, _ := ActorFromContext(ctx)
	return s.SaveTransaction(ctx, actor.UserID, req.Items, req.PaymentMethod)
}

// SaveTransaction records a sale and deducts its stock. Bottle lines take units off
// the bottle's row; pour lines take their volume off the parent drum's row. Inventory
// and the new transaction are written as one batch. Empty orders and stock going
// below zero are accepted.
func (s *Service) SaveTransaction(ctx context.Context, userID int, items []domain.OrderItem, paymentMethod string) (domain.Transaction, error) {
	var created domain.Transaction
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		products, err := s.repo.Products(ctx)
		if err != nil {
			return err
		}
		inventory, err := s.repo.Inventory(ctx)
		if err != nil {
			return err
		}
		txs, err := s.repo.Transactions(ctx)
		if err != nil {
			return err
		}

		catalog := byID(products)
		lines := make([]domain.TransactionItem, 0, len(items))
		totalAmount := decimal.Zero
		totalCost := decimal.Zero
		for _, item := range items {
			if item.Quantity <= 0 {
				return invalidf("line %q has quantity %d", item.Name, item.Quantity)
			}
			line, err := transactionLine(item, catalog)
			if err != nil {
				return err
			}
			if err := adjustStock(inventory, line, -1); err != nil {
				return err
			}
			lines = append(lines, line)
			totalAmount = totalAmount.Add(line.LineTotal)
			totalCost = totalCost.Add(line.LineCost)
		}

		created = domain.Transaction{
			ID:            xid.New("tx"),
			Timestamp:     s.now(),
			UserID:        userID,
			Items:         lines,
			TotalAmount:   totalAmount,
			TotalCost:     totalCost,
			Profit:        totalAmount.Sub(totalCost),
			Tax:           totalAmount.Mul(s.taxRate),
			Discount:      decimal.Zero,
			PaymentMethod: paymentMethod,
			Status:        domain.TxStatusCompleted,
		}
		txs = append([]domain.Transaction{created}, txs...)

		return s.repo.Commit(ctx,
			store.Entry{Key: store.KeyInventory, Value: inventory},
			store.Entry{Key: store.KeyTransactions, Value: txs},
		)
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	log.Printf("[service] transaction %s saved: total=%s lines=%d payment=%s",
		created.ID, created.TotalAmount.StringFixed(2), len(created.Items), created.PaymentMethod)
	return created, nil
}

// transactionLine freezes an order line. A bottle line must name a bottle when the
// product still exists; a deleted product is accepted so reversed lines can be sold
// again. Pour lines resolve their variant so the parent drum is recorded on the line.
func transactionLine(item domain.OrderItem, catalog map[int]domain.Product) (domain.TransactionItem, error) {
	quantity := decimal.NewFromInt(int64(item.Quantity))
	line := domain.TransactionItem{
		ProductID:  item.ProductID,
		Name:       item.Name,
		Type:       item.Type,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		BuyPrice:   item.BuyPrice,
		LineTotal:  item.UnitPrice.Mul(quantity),
		LineCost:   item.BuyPrice.Mul(quantity),
		PourSizeML: item.PourSizeML,
	}

	switch item.Type {
	case domain.ProductBottle:
		if product, ok := catalog[item.ProductID]; ok && product.Type != domain.ProductBottle {
			return line, invalidf("line %q is typed bottle but product %d is a %s", item.Name, item.ProductID, product.Type)
		}
		return line, nil
	case domain.ProductPour:
		variant, ok := catalog[item.ProductID]
		if !ok || variant.Type != domain.ProductPour || variant.ParentProductID == nil {
			return line, invalidf("line %q does not reference a pour variant", item.Name)
		}
		drum, ok := catalog[*variant.ParentProductID]
		if !ok || drum.Type != domain.ProductDrum {
			return line, invalidf("pour variant %d has no drum %d", variant.ID, *variant.ParentProductID)
		}
		line.DrumID = drum.ID
		if line.PourSizeML == 0 {
			line.PourSizeML = variant.PourSizeML
		}
		return line, nil
	case domain.ProductDrum:
		return line, invalidf("drum %q is sold through its pour variants", item.Name)
	default:
		return line, fmt.Errorf("%w: line %q: %w", store.ErrInvalidInput, item.Name, domain.ErrUnknownProductType)
	}
}

// adjustStock applies sign*line to inventory in place. Save uses -1 and reversal +1,
// so the two are exact inverses. A missing row is logged and left alone.
func adjustStock(inventory []domain.InventoryItem, line domain.TransactionItem, sign int) error {
	var rowID int
	switch line.Type {
	case domain.ProductBottle:
		rowID = line.ProductID
	case domain.ProductPour:
		rowID = line.DrumID
	case domain.ProductDrum:
		return invalidf("drum %q is sold through its pour variants", line.Name)
	default:
		return fmt.Errorf("%w: line %q: %w", store.ErrInvalidInput, line.Name, domain.ErrUnknownProductType)
	}

	idx := indexOf(inventory, func(r domain.InventoryItem) bool { return r.ProductID == rowID })
	if idx < 0 {
		log.Printf("[service] WARN: no inventory row for product %d; stock not adjusted for %q", rowID, line.Name)
		return nil
	}

	row := &inventory[idx]
	if line.Type == domain.ProductBottle {
		row.QuantityUnits += sign * line.Quantity
		if row.QuantityUnits < 0 {
			log.Printf("[service] WARN: product %d stock is negative (%d units)", rowID, row.QuantityUnits)
		}
		return nil
	}
	row.CurrentML += sign * line.VolumeML()
	if row.CurrentML < 0 {
		log.Printf("[service] WARN: drum %d volume is negative (%dml)", rowID, row.CurrentML)
	}
	return nil
}

// ReverseTransaction restores the stock a Completed transaction took, marks it
// Reversed and returns its lines rebuilt as fresh order items. Reversing twice fails.
func (s *Service) ReverseTransaction(ctx context.Context, id string) (domain.ReverseResponse, error) {
	var out domain.ReverseResponse
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		txs, err := s.repo.Transactions(ctx)
		if err != nil {
			return err
		}
		idx := indexOf(txs, func(tx domain.Transaction) bool { return tx.ID == id })
		if idx < 0 {
			return notFoundf("transaction %s", id)
		}
		tx := txs[idx]
		if tx.Status == domain.TxStatusReversed {
			return fmt.Errorf("%w: transaction %s is already reversed", store.ErrInvalidState, id)
		}

		inventory, err := s.repo.Inventory(ctx)
		if err != nil {
			return err
		}
		for _, line := range tx.Items {
			if err := adjustStock(inventory, line, +1); err != nil {
				return err
			}
		}

		reversedAt := s.now()
		tx.Status = domain.TxStatusReversed
		tx.ReversedAt = &reversedAt
		txs[idx] = tx

		products, err := s.repo.Products(ctx)
		if err != nil {
			return err
		}
		if err := s.repo.Commit(ctx,
			store.Entry{Key: store.KeyInventory, Value: inventory},
			store.Entry{Key: store.KeyTransactions, Value: txs},
		); err != nil {
			return err
		}

		out = domain.ReverseResponse{Transaction: tx, Items: reorderItems(tx.Items, byID(products))}
		return nil
	})
	if err != nil {
		return domain.ReverseResponse{}, err
	}

	log.Printf("[service] transaction %s reversed", id)
	return out, nil
}

// reorderItems rebuilds order lines from a transaction. Lines whose product has left
// the catalog come back as bottle lines carrying the recorded name and prices.
func reorderItems(lines []domain.TransactionItem, catalog map[int]domain.Product) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := domain.OrderItem{
			ID:         xid.New("line"),
			ProductID:  line.ProductID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			BuyPrice:   line.BuyPrice,
			Type:       line.Type,
			PourSizeML: line.PourSizeML,
		}
		if product, ok := catalog[line.ProductID]; ok {
			item.Image = product.Image
		} else {
			log.Printf("[service] WARN: product %d no longer exists; %q restored as a bottle line", line.ProductID, line.Name)
			item.Type = domain.ProductBottle
			item.PourSizeML = 0
		}
		items = append(items, item.WithQuantity(line.Quantity))
	}
	return items
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	idx := indexOf(txs, func(tx domain.Transaction) bool { return tx.ID == strings.TrimSpace(id) })
	if idx < 0 {
		return domain.Transaction{}, notFoundf("transaction %s", id)
	}
	return txs[idx], nil
}

// ListTransactions returns matching transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return report.Filter(txs, filter), nil
}

func byID(products []domain.Product) map[int]domain.Product {
	out := make(map[int]domain.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out
}
