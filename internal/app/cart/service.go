package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

// Service is the cart aggregator: a per-client collection of line items
// persisted best-effort through the CartStore port. A failed load degrades
// to an empty cart rather than blocking the storefront.
type Service struct {
	products  interfaces.ProductRepository
	store     interfaces.CartStore
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(
	products interfaces.ProductRepository,
	store interfaces.CartStore,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
) *Service {
	return &Service{
		products:  products,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Get(ctx context.Context, ownerKey string) (domain.Cart, error) {
	return s.load(ctx, ownerKey), nil
}

// AddItem merges the product into the cart with its sale-window price
// resolved now, persists the snapshot and fires a best-effort analytics
// event.
func (s *Service) AddItem(ctx context.Context, ownerKey, productID string, quantity int) (domain.Cart, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Cart{OwnerKey: ownerKey}, fmt.Errorf("failed to resolve product: %w", err)
	}

	cart := s.load(ctx, ownerKey)
	cart.AddProduct(product, quantity, time.Now().UTC())

	if err := s.store.Save(ctx, cart); err != nil {
		return cart, fmt.Errorf("failed to persist cart: %w", err)
	}

	s.publishEvent(ctx, interfaces.AnalyticsEvent{
		Event:     interfaces.EventCartAdd,
		ProductID: productID,
		Timestamp: time.Now().UTC(),
	})

	return cart, nil
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, ownerKey, productID string, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, ownerKey, productID)
	}

	cart := s.load(ctx, ownerKey)
	cart.SetQuantity(productID, quantity)

	if err := s.store.Save(ctx, cart); err != nil {
		return cart, fmt.Errorf("failed to persist cart: %w", err)
	}

	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, ownerKey, productID string) (domain.Cart, error) {
	cart := s.load(ctx, ownerKey)
	cart.Remove(productID)

	if err := s.store.Save(ctx, cart); err != nil {
		return cart, fmt.Errorf("failed to persist cart: %w", err)
	}

	s.publishEvent(ctx, interfaces.AnalyticsEvent{
		Event:     interfaces.EventCartRemove,
		ProductID: productID,
		Timestamp: time.Now().UTC(),
	})

	return cart, nil
}

func (s *Service) Clear(ctx context.Context, ownerKey string) error {
	if err := s.store.Delete(ctx, ownerKey); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// load fails open: a broken cart read yields an empty cart.
func (s *Service) load(ctx context.Context, ownerKey string) domain.Cart {
	cart, err := s.store.Load(ctx, ownerKey)
	if err != nil {
		s.logger.Error("cart_load_failed", "Failed to load cart, starting empty", "",
			map[string]interface{}{"owner_key": ownerKey}, err)
		return domain.Cart{OwnerKey: ownerKey}
	}
	return cart
}

func (s *Service) publishEvent(ctx context.Context, event interfaces.AnalyticsEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAnalyticsEvent(ctx, event); err != nil {
		s.logger.Debug("analytics_publish_failed", "Dropped analytics event", "",
			map[string]interface{}{"event": event.Event})
	}
}
