package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductInput is the upsert payload for SaveProduct. A nil ID creates a product;
// nil fields on update keep the stored value.
type ProductInput struct {
	ID                *int             `json:"id,omitempty"`
	SKU               *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Image             *string          `json:"image,omitempty"`
	Type              *ProductType     `json:"type,omitempty" validate:"omitempty,product_type"`
	Unit              *string          `json:"unit,omitempty"`
	BuyPrice          *decimal.Decimal `json:"buy_price,omitempty" validate:"omitempty,gte=0"`
	SellPrice         *decimal.Decimal `json:"sell_price,omitempty" validate:"omitempty,gte=0"`
	ThresholdQuantity *int             `json:"threshold_quantity,omitempty" validate:"omitempty,min=0"`
	ParentProductID   *int             `json:"parent_product_id,omitempty"`
	PourSizeML        *int             `json:"pour_size_ml,omitempty" validate:"omitempty,min=1"`
	Inventory         *InventoryInput  `json:"inventory,omitempty"`
}

type InventoryInput struct {
	QuantityUnits *int `json:"quantity_units,omitempty"`
	CurrentML     *int `json:"current_ml,omitempty"`
	CapacityML    *int `json:"capacity_ml,omitempty" validate:"omitempty,min=0"`
}

type RestockRequest struct {
	Units int `json:"units" validate:"min=0"`
	ML    int `json:"ml" validate:"min=0"`
}

// OrderActionRequest carries the caller's current order plus one builder action.
// For add_item the server builds the line from ProductID (and VariantID for pours).
type OrderActionRequest struct {
	Items     []OrderItem `json:"items"`
	Action    string      `json:"action" validate:"required,oneof=add_item update_quantity remove_item clear_order set_order"`
	ProductID int         `json:"product_id,omitempty"`
	VariantID int         `json:"variant_id,omitempty"`
	ItemID    string      `json:"item_id,omitempty"`
	Quantity  int         `json:"quantity,omitempty"`
	SetItems  []OrderItem `json:"set_items,omitempty"`
}

type OrderState struct {
	Items []OrderItem     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type CheckoutRequest struct {
	Items         []OrderItem `json:"items"`
	PaymentMethod string      `json:"payment_method" validate:"required,oneof=Cash M-Pesa Card"`
}

type ReverseResponse struct {
	Transaction Transaction `json:"transaction"`
	Items       []OrderItem `json:"items"`
}

type SuspendRequest struct {
	Items []OrderItem `json:"items"`
}

type ResumeRequest struct {
	ActiveItems []OrderItem `json:"active_items"`
}

type ExpenseInput struct {
	ID            *string          `json:"id,omitempty"`
	Date          *time.Time       `json:"date,omitempty"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,min=1,max=200"`
	Amount        *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Category      *string          `json:"category,omitempty" validate:"omitempty,max=60"`
	PaymentMethod *string          `json:"payment_method,omitempty" validate:"omitempty,oneof=Cash M-Pesa Card"`
}

type UserInput struct {
	ID       *int    `json:"id,omitempty"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=40,alphanum"`
	Name     *string `json:"name,omitempty" validate:"omitempty,max=80"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin cashier"`
	PIN      *string `json:"pin,omitempty" validate:"omitempty,numeric,min=4,max=8"`
	Active   *bool   `json:"active,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	PIN      string `json:"pin" validate:"required"`
}

type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserView `json:"user"`
	ExpiresAt   string   `json:"expires_at"`
}

type TransactionFilter struct {
	From          *time.Time
	To            *time.Time
	Status        TxStatus
	PaymentMethod string
	UserID        int
}

type CashUpRequest struct {
	Date    string          `json:"date"`
	Counted decimal.Decimal `json:"counted" validate:"gte=0"`
}

type ReceiptResponse struct {
	TransactionID string `json:"transaction_id"`
	HTML          string `json:"html"`
	PreviewText   string `json:"preview_text"`
	EscposBase64  string `json:"escpos_base64"`
}
