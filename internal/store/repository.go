package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"galaxyinn/backend/internal/domain"
)

// Repository gives typed access to the collections held in a KV. Every read decodes
// a fresh copy of the stored document; callers mutate their copy and save it back.
type Repository struct {
	kv KV

	// writeMu serializes read-modify-write sequences so concurrent requests never
	// interleave between reading a collection and writing it back.
	writeMu sync.Mutex

	seedOnce sync.Once
	seed     Seed
	seedFn   func() Seed
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv, seedFn: func() Seed { return DefaultSeed(time.Now().UTC()) }}
}

// NewRepositoryWithSeed is used by tests that need a specific starting catalog.
func NewRepositoryWithSeed(kv KV, seed Seed) *Repository {
	return &Repository{kv: kv, seedFn: func() Seed { return seed }}
}

func (r *Repository) Close() error {
	return r.kv.Close()
}

func (r *Repository) seedData() Seed {
	r.seedOnce.Do(func() {
		r.seed = r.seedFn()
	})
	return r.seed
}

// EnsureSeeded writes every seed collection in one batch unless the init flag is set.
func (r *Repository) EnsureSeeded(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var initialized bool
	found, err := r.kv.Get(ctx, KeyInitialized, &initialized)
	if err != nil {
		return fmt.Errorf("read init flag: %w", err)
	}
	if found && initialized {
		return nil
	}

	seed := r.seedData()
	err = r.kv.SetMany(ctx, []Entry{
		{Key: KeyUsers, Value: seed.Users},
		{Key: KeyProducts, Value: seed.Products},
		{Key: KeyInventory, Value: seed.Inventory},
		{Key: KeyTransactions, Value: seed.Transactions},
		{Key: KeySuspendedOrders, Value: seed.SuspendedOrders},
		{Key: KeyExpenses, Value: seed.Expenses},
		{Key: KeyInitialized, Value: true},
	})
	if err != nil {
		return fmt.Errorf("write seed data: %w", err)
	}
	log.Printf("[store] seeded %d products, %d users", len(seed.Products), len(seed.Users))
	return nil
}

// Update runs fn while holding the repository write lock. Every service operation
// that reads a collection in order to write it back goes through Update.
func (r *Repository) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return fn(ctx)
}

// Commit writes several collections as one all-or-nothing batch.
func (r *Repository) Commit(ctx context.Context, entries ...Entry) error {
	return r.kv.SetMany(ctx, entries)
}

func (r *Repository) Products(ctx context.Context) ([]domain.Product, error) {
	return load(ctx, r.kv, KeyProducts, func() []domain.Product { return r.seedData().Products })
}

func (r *Repository) SaveProducts(ctx context.Context, products []domain.Product) error {
	return r.kv.Set(ctx, KeyProducts, nonNil(products))
}

func (r *Repository) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	return load(ctx, r.kv, KeyInventory, func() []domain.InventoryItem { return r.seedData().Inventory })
}

func (r *Repository) SaveInventory(ctx context.Context, items []domain.InventoryItem) error {
	return r.kv.Set(ctx, KeyInventory, nonNil(items))
}

func (r *Repository) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	return load(ctx, r.kv, KeyTransactions, func() []domain.Transaction { return r.seedData().Transactions })
}

func (r *Repository) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	return r.kv.Set(ctx, KeyTransactions, nonNil(txs))
}

func (r *Repository) SuspendedOrders(ctx context.Context) ([]domain.SuspendedOrder, error) {
	return load(ctx, r.kv, KeySuspendedOrders, func() []domain.SuspendedOrder { return r.seedData().SuspendedOrders })
}

func (r *Repository) SaveSuspendedOrders(ctx context.Context, orders []domain.SuspendedOrder) error {
	return r.kv.Set(ctx, KeySuspendedOrders, nonNil(orders))
}

func (r *Repository) Expenses(ctx context.Context) ([]domain.Expense, error) {
	return load(ctx, r.kv, KeyExpenses, func() []domain.Expense { return r.seedData().Expenses })
}

func (r *Repository) SaveExpenses(ctx context.Context, expenses []domain.Expense) error {
	return r.kv.Set(ctx, KeyExpenses, nonNil(expenses))
}

func (r *Repository) Users(ctx context.Context) ([]domain.User, error) {
	return load(ctx, r.kv, KeyUsers, func() []domain.User { return r.seedData().Users })
}

func (r *Repository) SaveUsers(ctx context.Context, users []domain.User) error {
	return r.kv.Set(ctx, KeyUsers, nonNil(users))
}

// load reads one collection. An absent key falls back to the seed value, which is
// persisted so later reads see the same document.
func load[T any](ctx context.Context, kv KV, key string, fallback func() []T) ([]T, error) {
	var items []T
	found, err := kv.Get(ctx, key, &items)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if found {
		return nonNil(items), nil
	}

	seeded := fallback()
	if err := kv.Set(ctx, key, nonNil(seeded)); err != nil {
		return nil, fmt.Errorf("persist default %s: %w", key, err)
	}
	// Hand back a decoded copy, not the shared seed slice.
	items = nil
	if _, err := kv.Get(ctx, key, &items); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return nonNil(items), nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
