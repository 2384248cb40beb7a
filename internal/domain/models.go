package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is the closed set of product shapes. Every consumer switches over all
// three values and treats anything else as ErrUnknownProductType.
type ProductType string

const (
	ProductBottle ProductType = "bottle"
	ProductDrum   ProductType = "drum"
	ProductPour   ProductType = "pour"
)

var ErrUnknownProductType = errors.New("unknown product type")

func ParseProductType(raw string) (ProductType, error) {
	switch t := ProductType(raw); t {
	case ProductBottle, ProductDrum, ProductPour:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProductType, raw)
	}
}

// Product is a catalog entry. For pour variants BuyPrice and SellPrice are per-litre
// rates and ParentProductID points at the drum they draw from.
type Product struct {
	ID                int             `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Image             string          `json:"image"`
	Type              ProductType     `json:"type"`
	Unit              string          `json:"unit"`
	BuyPrice          decimal.Decimal `json:"buy_price"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	ThresholdQuantity int             `json:"threshold_quantity"`
	ParentProductID   *int            `json:"parent_product_id,omitempty"`
	PourSizeML        int             `json:"pour_size_ml,omitempty"`
}

// InventoryItem holds stock for one product. Bottles use QuantityUnits, drums use
// CurrentML/CapacityML. Pour variants have no row of their own.
type InventoryItem struct {
	ProductID     int       `json:"product_id"`
	QuantityUnits int       `json:"quantity_units"`
	CurrentML     int       `json:"current_ml"`
	CapacityML    int       `json:"capacity_ml"`
	LastRestocked time.Time `json:"last_restocked"`
}

type ProductWithInventory struct {
	Product
	Inventory *InventoryItem `json:"inventory,omitempty"`
}

// OrderItem is one line of an in-progress order. Quantity counts units for bottle
// lines and millilitres for pour lines.
type OrderItem struct {
	ID         string          `json:"id"`
	ProductID  int             `json:"product_id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Type       ProductType     `json:"type"`
	PourSizeML int             `json:"pour_size_ml,omitempty"`
}

// WithQuantity returns a copy of the line with quantity set and the total recomputed.
func (i OrderItem) WithQuantity(quantity int) OrderItem {
	i.Quantity = quantity
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return i
}

// FormatVolume renders millilitres as "750ml" below a litre and "1.5L" from a litre up.
func FormatVolume(ml int) string {
	if ml >= 1000 {
		return decimal.NewFromInt(int64(ml)).Div(decimal.NewFromInt(1000)).StringFixed(1) + "L"
	}
	return fmt.Sprintf("%dml", ml)
}

type SuspendedOrder struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	UserID    int         `json:"user_id"`
	Items     []OrderItem `json:"items"`
}

type TxStatus string

const (
	TxStatusCompleted TxStatus = "Completed"
	TxStatusReversed  TxStatus = "Reversed"
)

type TransactionItem struct {
	ProductID  int             `json:"product_id"`
	Name       string          `json:"name"`
	Type       ProductType     `json:"type"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	LineCost   decimal.Decimal `json:"line_cost"`
	PourSizeML int             `json:"pour_size_ml,omitempty"`
	// DrumID is the parent drum of a pour line, resolved at checkout.
	DrumID int `json:"drum_id,omitempty"`
}

// VolumeML is the drum volume drawn by a pour line. Pour quantities are already
// millilitres.
func (l TransactionItem) VolumeML() int {
	if l.Type != ProductPour {
		return 0
	}
	return l.Quantity
}

// Pours is the number of pour-sized servings on a pour line.
func (l TransactionItem) Pours() decimal.Decimal {
	if l.Type != ProductPour || l.PourSizeML <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(l.Quantity)).Div(decimal.NewFromInt(int64(l.PourSizeML)))
}

type Transaction struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	UserID        int               `json:"user_id"`
	Items         []TransactionItem `json:"items"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	TotalCost     decimal.Decimal   `json:"total_cost"`
	Profit        decimal.Decimal   `json:"profit"`
	Tax           decimal.Decimal   `json:"tax"`
	Discount      decimal.Decimal   `json:"discount"`
	PaymentMethod string            `json:"payment_method"`
	Status        TxStatus          `json:"status"`
	ReversedAt    *time.Time        `json:"reversed_at,omitempty"`
}

type Expense struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	UserID        int             `json:"user_id"`
}

// User is the persisted account. PINHash is a bcrypt hash and never leaves the
// service layer; handlers respond with UserView.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	PINHash   string    `json:"pin_hash"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type UserView struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) View() UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type Actor struct {
	UserID   int
	Username string
	Role     string
}

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	PaymentCash  = "Cash"
	PaymentMpesa = "M-Pesa"
	PaymentCard  = "Card"
)
