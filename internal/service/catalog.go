package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/store"
)

// ProductsWithInventory pairs every product with its inventory row. A product without
// a row is returned with a nil Inventory.
func (s *Service) ProductsWithInventory(ctx context.Context) ([]domain.ProductWithInventory, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	inventory, err := s.repo.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	return joinInventory(products, inventory), nil
}

func joinInventory(products []domain.Product, inventory []domain.InventoryItem) []domain.ProductWithInventory {
	rows := make(map[int]domain.InventoryItem, len(inventory))
	for _, row := range inventory {
		rows[row.ProductID] = row
	}
	out := make([]domain.ProductWithInventory, 0, len(products))
	for _, p := range products {
		item := domain.ProductWithInventory{Product: p}
		if row, ok := rows[p.ID]; ok {
			item.Inventory = &row
		}
		out = append(out, item)
	}
	return out
}

// PourVariantsForDrum returns the pour variants of drumID in catalog order.
func (s *Service) PourVariantsForDrum(ctx context.Context, drumID int) ([]domain.Product, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, err
	}
	return pourVariants(products, drumID), nil
}

func pourVariants(products []domain.Product, drumID int) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.Type == domain.ProductPour && p.ParentProductID != nil && *p.ParentProductID == drumID {
			out = append(out, p)
		}
	}
	return out
}

// SaveProduct creates a product when in.ID is nil and merges in over the stored
// product otherwise. Creating a bottle or drum also creates its inventory row; a pour
// variant gets none because its sales draw from the parent drum's row. An update
// merges inventory fields into an existing row but never creates a missing one.
func (s *Service) SaveProduct(ctx context.Context, in domain.ProductInput) (domain.ProductWithInventory, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.ProductWithInventory{}, err
	}
	if err := checkInput(in); err != nil {
		return domain.ProductWithInventory{}, err
	}

	var saved domain.ProductWithInventory
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		products, err := s.repo.Products(ctx)
		if err != nil {
			return err
		}
		inventory, err := s.repo.Inventory(ctx)
		if err != nil {
			return err
		}

		var product domain.Product
		if in.ID == nil {
			if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Type == nil {
				return invalidf("name and type are required for a new product")
			}
			product = domain.Product{ID: nextIntID(products, func(p domain.Product) int { return p.ID })}
			mergeProduct(&product, in)
			if err := checkShape(product, products); err != nil {
				return err
			}
			products = append(products, product)

			if product.Type != domain.ProductPour {
				row := domain.InventoryItem{ProductID: product.ID, LastRestocked: s.now()}
				mergeInventory(&row, in.Inventory)
				inventory = append(inventory, row)
			}
		} else {
			idx := indexOf(products, func(p domain.Product) bool { return p.ID == *in.ID })
			if idx < 0 {
				return notFoundf("product %d", *in.ID)
			}
			product = products[idx]
			mergeProduct(&product, in)
			if err := checkShape(product, products); err != nil {
				return err
			}
			products[idx] = product

			if in.Inventory != nil {
				row := indexOf(inventory, func(r domain.InventoryItem) bool { return r.ProductID == product.ID })
				if row < 0 {
					log.Printf("[service] WARN: product %d has no inventory row; inventory fields ignored", product.ID)
				} else {
					mergeInventory(&inventory[row], in.Inventory)
				}
			}
		}

		if err := s.repo.Commit(ctx,
			store.Entry{Key: store.KeyProducts, Value: products},
			store.Entry{Key: store.KeyInventory, Value: inventory},
		); err != nil {
			return err
		}
		saved = joinInventory([]domain.Product{product}, inventory)[0]
		return nil
	})
	return saved, err
}

func mergeProduct(p *domain.Product, in domain.ProductInput) {
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.BuyPrice != nil {
		p.BuyPrice = *in.BuyPrice
	}
	if in.SellPrice != nil {
		p.SellPrice = *in.SellPrice
	}
	if in.ThresholdQuantity != nil {
		p.ThresholdQuantity = *in.ThresholdQuantity
	}
	if in.ParentProductID != nil {
		parent := *in.ParentProductID
		p.ParentProductID = &parent
	}
	if in.PourSizeML != nil {
		p.PourSizeML = *in.PourSizeML
	}
	if p.Unit == "" {
		switch p.Type {
		case domain.ProductBottle:
			p.Unit = "bottle"
		case domain.ProductDrum, domain.ProductPour:
			p.Unit = "ml"
		}
	}
}

func mergeInventory(row *domain.InventoryItem, in *domain.InventoryInput) {
	if in == nil {
		return
	}
	if in.QuantityUnits != nil {
		row.QuantityUnits = *in.QuantityUnits
	}
	if in.CurrentML != nil {
		row.CurrentML = *in.CurrentML
	}
	if in.CapacityML != nil {
		row.CapacityML = *in.CapacityML
	}
}

// checkShape enforces the product kind invariants: a pour references an existing drum
// and has a positive size; bottles and drums have no parent.
func checkShape(p domain.Product, catalog []domain.Product) error {
	switch p.Type {
	case domain.ProductBottle, domain.ProductDrum:
		if p.ParentProductID != nil {
			return invalidf("%s product %q cannot have a parent", p.Type, p.Name)
		}
		return nil
	case domain.ProductPour:
		if p.PourSizeML <= 0 {
			return invalidf("pour variant %q needs a positive pour size", p.Name)
		}
		if p.ParentProductID == nil {
			return invalidf("pour variant %q needs a parent drum", p.Name)
		}
		idx := indexOf(catalog, func(c domain.Product) bool { return c.ID == *p.ParentProductID })
		if idx < 0 || catalog[idx].Type != domain.ProductDrum {
			return invalidf("parent %d of pour variant %q is not a drum", *p.ParentProductID, p.Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: product %q: %w: %q", store.ErrInvalidInput, p.Name, domain.ErrUnknownProductType, p.Type)
	}
}

// DeleteProduct removes the product and its inventory row. Pour variants of a deleted
// drum and historical transaction lines keep their references.
func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, func(ctx context.Context) error {
		products, err := s.repo.Products(ctx)
		if err != nil {
			return err
		}
		idx := indexOf(products, func(p domain.Product) bool { return p.ID == id })
		if idx < 0 {
			return notFoundf("product %d", id)
		}
		if n := len(pourVariants(products, id)); n > 0 {
			log.Printf("[service] WARN: deleting drum %d leaves %d pour variants without a parent", id, n)
		}
		products = append(products[:idx], products[idx+1:]...)

		inventory, err := s.repo.Inventory(ctx)
		if err != nil {
			return err
		}
		kept := inventory[:0]
		for _, row := range inventory {
			if row.ProductID != id {
				kept = append(kept, row)
			}
		}

		return s.repo.Commit(ctx,
			store.Entry{Key: store.KeyProducts, Value: products},
			store.Entry{Key: store.KeyInventory, Value: kept},
		)
	})
}

// Restock adds units to a bottle or millilitres to a drum and stamps lastRestocked.
// A missing row is created.
func (s *Service) Restock(ctx context.Context, productID int, req domain.RestockRequest) (domain.InventoryItem, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.InventoryItem{}, err
	}
	if err := checkInput(req); err != nil {
		return domain.InventoryItem{}, err
	}

	var saved domain.InventoryItem
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		products, err := s.repo.Products(ctx)
		if err != nil {
			return err
		}
		idx := indexOf(products, func(p domain.Product) bool { return p.ID == productID })
		if idx < 0 {
			return notFoundf("product %d", productID)
		}
		product := products[idx]

		inventory, err := s.repo.Inventory(ctx)
		if err != nil {
			return err
		}
		row := indexOf(inventory, func(r domain.InventoryItem) bool { return r.ProductID == productID })
		if row < 0 {
			inventory = append(inventory, domain.InventoryItem{ProductID: productID})
			row = len(inventory) - 1
		}

		switch product.Type {
		case domain.ProductBottle:
			if req.Units <= 0 {
				return invalidf("restocking a bottle needs units > 0")
			}
			inventory[row].QuantityUnits += req.Units
		case domain.ProductDrum:
			if req.ML <= 0 {
				return invalidf("restocking a drum needs ml > 0")
			}
			inventory[row].CurrentML += req.ML
			if inventory[row].CapacityML > 0 && inventory[row].CurrentML > inventory[row].CapacityML {
				log.Printf("[service] WARN: drum %d now holds %dml over its %dml capacity",
					productID, inventory[row].CurrentML, inventory[row].CapacityML)
			}
		case domain.ProductPour:
			return invalidf("pour variant %d has no stock of its own; restock its drum", productID)
		default:
			return fmt.Errorf("%w: product %d: %w: %q", store.ErrInvalidInput, productID, domain.ErrUnknownProductType, product.Type)
		}
		inventory[row].LastRestocked = s.now()

		if err := s.repo.SaveInventory(ctx, inventory); err != nil {
			return err
		}
		saved = inventory[row]
		return nil
	})
	return saved, err
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}
