package store

import (
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"galaxyinn/backend/internal/domain"
)

type Seed struct {
	Users           []domain.User
	Products        []domain.Product
	Inventory       []domain.InventoryItem
	Transactions    []domain.Transaction
	SuspendedOrders []domain.SuspendedOrder
	Expenses        []domain.Expense
}

// DefaultSeed is the Galaxy Inn starting catalog. Seed PINs come from
// SEED_ADMIN_PIN and SEED_CASHIER_PIN, falling back to dev defaults.
func DefaultSeed(now time.Time) Seed {
	whiskeyDrum := 5
	vodkaDrum := 9

	products := []domain.Product{
		bottle(1, "GIN-GUI-500", "Guinness 500ml", "150", "300", 24),
		bottle(2, "BER-TUS-500", "Tusker Lager 500ml", "140", "250", 24),
		bottle(3, "BER-WCP-500", "White Cap 500ml", "145", "260", 24),
		bottle(4, "SOD-COK-500", "Coca-Cola 500ml", "50", "100", 12),
		{
			ID: whiskeyDrum, SKU: "DRM-WHK-20L", Name: "Whiskey", Image: "/images/whiskey-drum.png",
			Type: domain.ProductDrum, Unit: "ml", BuyPrice: decimal.RequireFromString("18000"),
			SellPrice: decimal.Zero, ThresholdQuantity: 5000,
		},
		pour(6, "PR-WHK-250", "Whiskey (1/4L)", whiskeyDrum, 250, "900", "1600"),
		pour(7, "PR-WHK-500", "Whiskey (1/2L)", whiskeyDrum, 500, "900", "1500"),
		pour(8, "PR-WHK-1000", "Whiskey (1L)", whiskeyDrum, 1000, "900", "1400"),
		{
			ID: vodkaDrum, SKU: "DRM-VDK-10L", Name: "Vodka", Image: "/images/vodka-drum.png",
			Type: domain.ProductDrum, Unit: "ml", BuyPrice: decimal.RequireFromString("8000"),
			SellPrice: decimal.Zero, ThresholdQuantity: 2000,
		},
		pour(10, "PR-VDK-250", "Vodka (1/4L)", vodkaDrum, 250, "800", "1400"),
	}

	inventory := []domain.InventoryItem{
		{ProductID: 1, QuantityUnits: 120, LastRestocked: now},
		{ProductID: 2, QuantityUnits: 144, LastRestocked: now},
		{ProductID: 3, QuantityUnits: 96, LastRestocked: now},
		{ProductID: 4, QuantityUnits: 48, LastRestocked: now},
		{ProductID: whiskeyDrum, CurrentML: 20000, CapacityML: 20000, LastRestocked: now},
		{ProductID: vodkaDrum, CurrentML: 10000, CapacityML: 10000, LastRestocked: now},
	}

	return Seed{
		Users:           seedUsers(now),
		Products:        products,
		Inventory:       inventory,
		Transactions:    []domain.Transaction{},
		SuspendedOrders: []domain.SuspendedOrder{},
		Expenses: []domain.Expense{
			{
				ID: "exp-seed-ice", Date: now, Description: "Ice delivery", Amount: decimal.RequireFromString("500"),
				Category: "Supplies", PaymentMethod: domain.PaymentCash, UserID: 1,
			},
		},
	}
}

func bottle(id int, sku, name, buy, sell string, threshold int) domain.Product {
	return domain.Product{
		ID: id, SKU: sku, Name: name, Type: domain.ProductBottle, Unit: "bottle",
		BuyPrice: decimal.RequireFromString(buy), SellPrice: decimal.RequireFromString(sell),
		ThresholdQuantity: threshold,
	}
}

// Pour variant prices are per-litre rates; the order builder divides them by 1000.
func pour(id int, sku, name string, parent int, sizeML int, buyPerLitre, sellPerLitre string) domain.Product {
	return domain.Product{
		ID: id, SKU: sku, Name: name, Type: domain.ProductPour, Unit: "ml",
		BuyPrice: decimal.RequireFromString(buyPerLitre), SellPrice: decimal.RequireFromString(sellPerLitre),
		ParentProductID: &parent, PourSizeML: sizeML,
	}
}

func seedUsers(now time.Time) []domain.User {
	adminPIN := envOr("SEED_ADMIN_PIN", "2580")
	cashierPIN := envOr("SEED_CASHIER_PIN", "1397")
	if os.Getenv("SEED_ADMIN_PIN") == "" || os.Getenv("SEED_CASHIER_PIN") == "" {
		log.Println("[store] WARNING: using default dev PINs. Set SEED_ADMIN_PIN and SEED_CASHIER_PIN to override.")
	}

	users := make([]domain.User, 0, 2)
	for i, u := range []struct {
		username string
		name     string
		pin      string
		role     string
	}{
		{"admin", "Galaxy Admin", adminPIN, domain.RoleAdmin},
		{"cashier", "Front Bar", cashierPIN, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.pin), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[store] failed to hash seed PIN for %s: %v", u.username, err)
		}
		users = append(users, domain.User{
			ID:        i + 1,
			Username:  u.username,
			Name:      u.name,
			Role:      u.role,
			PINHash:   string(hash),
			Active:    true,
			CreatedAt: now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
