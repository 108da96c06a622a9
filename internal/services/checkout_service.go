package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/pkg/rabbitmq"
)

// CommissionRate is the platform fee charged on every order, as a fraction
// of the order subtotal.
var CommissionRate = decimal.NewFromFloat(0.07)

// CheckoutRequest carries the buyer-supplied checkout parameters.
type CheckoutRequest struct {
	BuyerID         string
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
	IdempotencyKey  string
}

// FailedGroup reports one farmer group that could not be ordered. Its items
// stay in the cart.
type FailedGroup struct {
	FarmerID   string   `json:"farmer_id"`
	ProductIDs []string `json:"product_ids"`
	Reason     string   `json:"reason"`
}

// CheckoutResult enumerates the per-farmer outcome of a checkout.
type CheckoutResult struct {
	Orders []models.Order `json:"orders"`
	Failed []FailedGroup  `json:"failed,omitempty"`
}

// FullSuccess reports whether every farmer group produced an order.
func (r *CheckoutResult) FullSuccess() bool { return len(r.Failed) == 0 }

// CheckoutService converts a buyer's cart into one order per farmer.
type CheckoutService struct {
	cartRepo        repositories.CartRepository
	productRepo     repositories.ProductRepository
	orderRepo       repositories.OrderRepository
	idempotencyRepo repositories.IdempotencyRepository
	publisher       rabbitmq.Publisher

	// buyerLocks serializes concurrent checkouts from the same buyer so two
	// racing requests never both decrement stock for the same cart.
	buyerLocks sync.Map // buyerID -> *sync.Mutex
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	orderRepo repositories.OrderRepository,
	idempotencyRepo repositories.IdempotencyRepository,
	publisher rabbitmq.Publisher,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		orderRepo:       orderRepo,
		idempotencyRepo: idempotencyRepo,
		publisher:       publisher,
	}
}

// farmerGroup accumulates one farmer's slice of the cart during fan-out.
type farmerGroup struct {
	farmerID string
	items    []models.OrderItem
	subtotal decimal.Decimal
}

// Checkout runs the order fan-out sequence:
//
//  1. Resolve every cart line to its current product snapshot.
//  2. Partition lines by the product's owning farmer.
//  3. Per group: decrement stock (atomic conditional update, compensated on
//     partial failure), then persist the order with its items and the price
//     snapshots taken in step 1.
//  4. Remove only the successfully ordered lines from the cart.
//
// Farmer groups commit independently: a group that fails stock validation is
// reported in the result and its items stay in the cart, while the other
// groups' orders stand.
func (s *CheckoutService) Checkout(req CheckoutRequest) (*CheckoutResult, error) {
	if req.DeliveryAddress == "" {
		return nil, apperrors.Validation("delivery_address", "delivery address is required")
	}
	if len(req.DeliveryAddress) > 500 {
		return nil, apperrors.Validation("delivery_address", "delivery address is too long")
	}
	if req.DeliveryDate != nil && req.DeliveryDate.Before(time.Now()) {
		return nil, apperrors.Validation("delivery_date", "delivery date must not be in the past")
	}

	lock := s.lockFor(req.BuyerID)
	lock.Lock()
	defer lock.Unlock()

	// A retried request with a known idempotency key replays the original
	// result instead of re-running the fan-out.
	if req.IdempotencyKey != "" {
		if replay, err := s.replay(req.BuyerID, req.IdempotencyKey); err == nil {
			return replay, nil
		} else if !apperrors.Is(err, apperrors.KindNotFound) {
			return nil, err
		}
	}

	groups, err := s.loadFarmerGroups(req.BuyerID)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{}
	var orderedProductIDs []string

	for _, group := range groups {
		order, groupErr := s.processGroup(group, req)
		if groupErr != nil {
			if apperrors.Is(groupErr, apperrors.KindInsufficientStock) {
				result.Failed = append(result.Failed, FailedGroup{
					FarmerID:   group.farmerID,
					ProductIDs: groupProductIDs(group),
					Reason:     groupErr.Error(),
				})
				continue
			}
			return nil, groupErr
		}
		result.Orders = append(result.Orders, *order)
		orderedProductIDs = append(orderedProductIDs, groupProductIDs(group)...)
	}

	// Only successfully ordered lines leave the cart; failed groups stay
	// visible to the buyer.
	if err := s.cartRepo.RemoveItems(req.BuyerID, orderedProductIDs); err != nil {
		return nil, fmt.Errorf("failed to remove ordered items from cart: %w", err)
	}

	if req.IdempotencyKey != "" {
		s.remember(req.BuyerID, req.IdempotencyKey, result)
	}

	for i := range result.Orders {
		s.publishOrderCreated(&result.Orders[i])
	}

	return result, nil
}

// lockFor returns the per-buyer checkout mutex, creating it on first use.
func (s *CheckoutService) lockFor(buyerID string) *sync.Mutex {
	actual, _ := s.buyerLocks.LoadOrStore(buyerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// loadFarmerGroups resolves the cart to product snapshots and partitions the
// lines by owning farmer, preserving cart order within each group.
func (s *CheckoutService) loadFarmerGroups(buyerID string) ([]*farmerGroup, error) {
	cartItems, err := s.cartRepo.GetByBuyer(buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, apperrors.New(apperrors.KindEmptyCart, "cart is empty")
	}

	byFarmer := make(map[string]*farmerGroup)
	var ordered []*farmerGroup
	for _, item := range cartItems {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				// The product was delisted after it entered the cart. Drop
				// the stale line rather than corrupting the checkout.
				zap.S().Warnf("dropping cart line for missing product %s (buyer %s)", item.ProductID, buyerID)
				if removeErr := s.cartRepo.RemoveItem(buyerID, item.ProductID); removeErr != nil {
					zap.S().Errorf("failed to drop stale cart line: %v", removeErr)
				}
				continue
			}
			return nil, fmt.Errorf("failed to resolve product %s: %w", item.ProductID, err)
		}

		group, ok := byFarmer[product.FarmerID]
		if !ok {
			group = &farmerGroup{farmerID: product.FarmerID, subtotal: decimal.Zero}
			byFarmer[product.FarmerID] = group
			ordered = append(ordered, group)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		group.items = append(group.items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			LineTotal:   lineTotal,
		})
		group.subtotal = group.subtotal.Add(lineTotal)
	}

	if len(ordered) == 0 {
		return nil, apperrors.New(apperrors.KindEmptyCart, "cart is empty")
	}
	return ordered, nil
}

// processGroup decrements stock for every product of one farmer group and,
// if all decrements hold, persists the group's order. A failed decrement
// restocks the group's earlier decrements so the group fails whole.
func (s *CheckoutService) processGroup(group *farmerGroup, req CheckoutRequest) (*models.Order, error) {
	var decremented []models.OrderItem
	for _, item := range group.items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.restock(decremented)
			if apperrors.Is(err, apperrors.KindInsufficientStock) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		decremented = append(decremented, item)
	}

	commission := group.subtotal.Mul(CommissionRate).Round(2)
	order := &models.Order{
		ID:              uuid.New().String(),
		BuyerID:         req.BuyerID,
		FarmerID:        group.farmerID,
		Total:           group.subtotal,
		Commission:      commission,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
		Items:           group.items,
	}

	if err := s.orderRepo.CreateWithItems(order); err != nil {
		s.restock(group.items)
		return nil, fmt.Errorf("failed to create order for farmer %s: %w", group.farmerID, err)
	}
	return order, nil
}

// restock compensates already-applied decrements of a failed group.
func (s *CheckoutService) restock(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.RestoreStock(item.ProductID, item.Quantity); err != nil {
			zap.S().Errorf("failed to restock product %s after failed checkout group: %v", item.ProductID, err)
		}
	}
}

// replay loads the orders recorded under an idempotency key.
func (s *CheckoutService) replay(buyerID, key string) (*CheckoutResult, error) {
	record, err := s.idempotencyRepo.Get(buyerID, key)
	if err != nil {
		return nil, err
	}
	var orderIDs []string
	if err := json.Unmarshal([]byte(record.OrderIDs), &orderIDs); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	orders, err := s.orderRepo.GetByIDs(orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for idempotency replay: %w", err)
	}
	zap.S().Infow("replaying checkout result for idempotency key", "buyer_id", buyerID)
	return &CheckoutResult{Orders: orders}, nil
}

// remember records the created order ids under the idempotency key.
// Best-effort: a failed save only disables replay for this key.
func (s *CheckoutService) remember(buyerID, key string, result *CheckoutResult) {
	orderIDs := make([]string, 0, len(result.Orders))
	for _, order := range result.Orders {
		orderIDs = append(orderIDs, order.ID)
	}
	encoded, err := json.Marshal(orderIDs)
	if err != nil {
		zap.S().Errorf("failed to encode idempotency record: %v", err)
		return
	}
	record := &models.IdempotencyKey{BuyerID: buyerID, Key: key, OrderIDs: string(encoded)}
	if err := s.idempotencyRepo.Save(record); err != nil {
		zap.S().Errorf("failed to save idempotency key: %v", err)
	}
}

// publishOrderCreated emits the order.created event. Best-effort: the order
// is already durable, the event is advisory.
func (s *CheckoutService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_id":  order.ID,
		"buyer_id":  order.BuyerID,
		"farmer_id": order.FarmerID,
		"status":    order.Status,
		"total":     order.Total,
	})
	if err != nil {
		zap.S().Errorf("failed to marshal order created event: %v", err)
		return
	}
	if err := s.publisher.Publish(rabbitmq.OrdersExchange, rabbitmq.RoutingOrderCreated, body); err != nil {
		zap.S().Warnf("failed to publish order created event for order %s: %v", order.ID, err)
	}
}

func groupProductIDs(group *farmerGroup) []string {
	ids := make([]string, 0, len(group.items))
	for _, item := range group.items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
