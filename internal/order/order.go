// Package order holds the in-progress order reducer. Every transition is a pure
// function of the current state and one action; nothing here touches storage.
package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/xid"
)

type State struct {
	Items []domain.OrderItem `json:"items"`
}

// Action is one of AddItem, UpdateQuantity, RemoveItem, ClearOrder or SetOrder.
type Action interface {
	isAction()
}

type AddItem struct {
	Item domain.OrderItem
}

type UpdateQuantity struct {
	ItemID   string
	Quantity int
}

type RemoveItem struct {
	ItemID string
}

type ClearOrder struct{}

// SetOrder replaces every line. Resuming a suspended order goes through it.
type SetOrder struct {
	Items []domain.OrderItem
}

func (AddItem) isAction()        {}
func (UpdateQuantity) isAction() {}
func (RemoveItem) isAction()     {}
func (ClearOrder) isAction()     {}
func (SetOrder) isAction()       {}

var newLineID = func() string { return xid.New("line") }

// Reduce applies a to s and returns the next state. s is never modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddItem:
		return addItem(s, a.Item)
	case UpdateQuantity:
		return updateQuantity(s, a.ItemID, a.Quantity)
	case RemoveItem:
		return State{Items: without(s.Items, a.ItemID)}
	case ClearOrder:
		return State{Items: []domain.OrderItem{}}
	case SetOrder:
		return State{Items: clone(a.Items)}
	default:
		return State{Items: clone(s.Items)}
	}
}

// Only bottle lines merge. Each pour is its own priced event even for the same drum.
func addItem(s State, item domain.OrderItem) State {
	items := clone(s.Items)
	if item.Type == domain.ProductBottle {
		for i, existing := range items {
			if existing.ProductID == item.ProductID && existing.Type == domain.ProductBottle {
				items[i] = existing.WithQuantity(existing.Quantity + item.Quantity)
				return State{Items: items}
			}
		}
	}

	line := item.WithQuantity(item.Quantity)
	line.ID = newLineID()
	return State{Items: append(items, line)}
}

func updateQuantity(s State, itemID string, quantity int) State {
	if quantity <= 0 {
		return State{Items: without(s.Items, itemID)}
	}
	items := clone(s.Items)
	for i, existing := range items {
		if existing.ID == itemID {
			items[i] = existing.WithQuantity(quantity)
		}
	}
	return State{Items: items}
}

func without(items []domain.OrderItem, itemID string) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		if item.ID != itemID {
			out = append(out, item)
		}
	}
	return out
}

func clone(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	return out
}

// Total sums the line totals of an order.
func Total(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

var perML = decimal.NewFromInt(1000)

// BottleLine builds the line added by one click on a bottle product.
func BottleLine(p domain.Product) (domain.OrderItem, error) {
	if p.Type != domain.ProductBottle {
		return domain.OrderItem{}, fmt.Errorf("product %d is a %s, not a bottle", p.ID, p.Type)
	}
	return domain.OrderItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		UnitPrice: p.SellPrice,
		BuyPrice:  p.BuyPrice,
		Type:      domain.ProductBottle,
	}.WithQuantity(1), nil
}

// PourLine builds the line for one pour of variant from drum. Quantity is the pour
// size in millilitres and prices are the variant's per-litre rates divided by 1000.
func PourLine(drum domain.Product, variant domain.Product) (domain.OrderItem, error) {
	if drum.Type != domain.ProductDrum {
		return domain.OrderItem{}, fmt.Errorf("product %d is a %s, not a drum", drum.ID, drum.Type)
	}
	if variant.Type != domain.ProductPour {
		return domain.OrderItem{}, fmt.Errorf("product %d is a %s, not a pour variant", variant.ID, variant.Type)
	}
	if variant.ParentProductID == nil || *variant.ParentProductID != drum.ID {
		return domain.OrderItem{}, fmt.Errorf("pour variant %d does not belong to drum %d", variant.ID, drum.ID)
	}
	if variant.PourSizeML <= 0 {
		return domain.OrderItem{}, fmt.Errorf("pour variant %d has no pour size", variant.ID)
	}

	image := variant.Image
	if image == "" {
		image = drum.Image
	}
	return domain.OrderItem{
		ProductID:  variant.ID,
		Name:       variant.Name + " (Pour)",
		Image:      image,
		UnitPrice:  variant.SellPrice.Div(perML),
		BuyPrice:   variant.BuyPrice.Div(perML),
		Type:       domain.ProductPour,
		PourSizeML: variant.PourSizeML,
	}.WithQuantity(variant.PourSizeML), nil
}

// FormatQuantity renders a line quantity for display: "2x" for bottles, a volume for pours.
func FormatQuantity(item domain.OrderItem) (string, error) {
	switch item.Type {
	case domain.ProductBottle, domain.ProductDrum:
		return fmt.Sprintf("%dx", item.Quantity), nil
	case domain.ProductPour:
		return domain.FormatVolume(item.Quantity), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownProductType, item.Type)
	}
}
