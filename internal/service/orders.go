package service

import (
	"context"
	"fmt"
	"log"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/order"
	"galaxyinn/backend/internal/store"
	"galaxyinn/backend/internal/xid"
)

// ApplyOrderAction runs one builder action over the caller's order. For add_item the
// line is built from the catalog: a bottle id adds one bottle, a drum id plus a
// variant id (or a variant id alone) adds one pour.
func (s *Service) ApplyOrderAction(ctx context.Context, req domain.OrderActionRequest) (domain.OrderState, error) {
	if err := checkInput(req); err != nil {
		return domain.OrderState{}, err
	}

	var action order.Action
	switch req.Action {
	case "add_item":
		products, err := s.repo.Products(ctx)
		if err != nil {
			return domain.OrderState{}, err
		}
		line, err := buildLine(byID(products), req.ProductID, req.VariantID)
		if err != nil {
			return domain.OrderState{}, err
		}
		if req.Quantity > 1 && line.Type == domain.ProductBottle {
			line = line.WithQuantity(req.Quantity)
		}
		action = order.AddItem{Item: line}
	case "update_quantity":
		action = order.UpdateQuantity{ItemID: req.ItemID, Quantity: req.Quantity}
	case "remove_item":
		action = order.RemoveItem{ItemID: req.ItemID}
	case "clear_order":
		action = order.ClearOrder{}
	case "set_order":
		action = order.SetOrder{Items: req.SetItems}
	default:
		return domain.OrderState{}, invalidf("unknown order action %q", req.Action)
	}

	next := order.Reduce(order.State{Items: req.Items}, action)
	return domain.OrderState{Items: next.Items, Total: order.Total(next.Items)}, nil
}

func buildLine(catalog map[int]domain.Product, productID, variantID int) (domain.OrderItem, error) {
	product, ok := catalog[productID]
	if !ok {
		return domain.OrderItem{}, notFoundf("product %d", productID)
	}

	var line domain.OrderItem
	var err error
	switch product.Type {
	case domain.ProductBottle:
		line, err = order.BottleLine(product)
	case domain.ProductDrum:
		variant, ok := catalog[variantID]
		if !ok {
			return domain.OrderItem{}, invalidf("drum %d needs a pour variant", productID)
		}
		line, err = order.PourLine(product, variant)
	case domain.ProductPour:
		if product.ParentProductID == nil {
			return domain.OrderItem{}, invalidf("pour variant %d has no parent drum", productID)
		}
		drum, ok := catalog[*product.ParentProductID]
		if !ok {
			return domain.OrderItem{}, invalidf("pour variant %d references missing drum %d", productID, *product.ParentProductID)
		}
		line, err = order.PourLine(drum, product)
	default:
		return domain.OrderItem{}, fmt.Errorf("%w: product %d: %w", store.ErrInvalidInput, productID, domain.ErrUnknownProductType)
	}
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return line, nil
}

// SuspendOrder sets the caller's order aside. The caller clears its active order.
func (s *Service) SuspendOrder(ctx context.Context, items []domain.OrderItem) (domain.SuspendedOrder, error) {
	if len(items) == 0 {
		return domain.SuspendedOrder{}, invalidf("cannot suspend an empty order")
	}
	actor, _ := ActorFromContext(ctx)

	suspended := domain.SuspendedOrder{
		ID:        xid.New("susp"),
		CreatedAt: s.now(),
		UserID:    actor.UserID,
		Items:     items,
	}
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		orders, err := s.repo.SuspendedOrders(ctx)
		if err != nil {
			return err
		}
		return s.repo.SaveSuspendedOrders(ctx, append(orders, suspended))
	})
	if err != nil {
		return domain.SuspendedOrder{}, err
	}
	log.Printf("[service] order %s suspended with %d lines", suspended.ID, len(items))
	return suspended, nil
}

func (s *Service) ListSuspendedOrders(ctx context.Context) ([]domain.SuspendedOrder, error) {
	return s.repo.SuspendedOrders(ctx)
}

// ResumeSuspendedOrder removes the snapshot and returns its lines as the new active
// order. It refuses while the caller's active order still has lines.
func (s *Service) ResumeSuspendedOrder(ctx context.Context, id string, active []domain.OrderItem) (domain.OrderState, error) {
	if len(active) > 0 {
		return domain.OrderState{}, fmt.Errorf("%w: finish or clear the current order before resuming", store.ErrInvalidState)
	}

	suspended, err := s.popSuspended(ctx, id)
	if err != nil {
		return domain.OrderState{}, err
	}
	next := order.Reduce(order.State{Items: active}, order.SetOrder{Items: suspended.Items})
	return domain.OrderState{Items: next.Items, Total: order.Total(next.Items)}, nil
}

func (s *Service) DiscardSuspendedOrder(ctx context.Context, id string) error {
	suspended, err := s.popSuspended(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("[service] suspended order %s discarded (%d lines)", suspended.ID, len(suspended.Items))
	return nil
}

func (s *Service) popSuspended(ctx context.Context, id string) (domain.SuspendedOrder, error) {
	var popped domain.SuspendedOrder
	err := s.repo.Update(ctx, func(ctx context.Context) error {
		orders, err := s.repo.SuspendedOrders(ctx)
		if err != nil {
			return err
		}
		idx := indexOf(orders, func(o domain.SuspendedOrder) bool { return o.ID == id })
		if idx < 0 {
			return notFoundf("suspended order %s", id)
		}
		popped = orders[idx]
		return s.repo.SaveSuspendedOrders(ctx, append(orders[:idx], orders[idx+1:]...))
	})
	return popped, err
}
