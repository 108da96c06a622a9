package services

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/pkg/mailer"
	"farmmarket/pkg/rabbitmq"
)

// validTransitions is the order status state machine. Cancellation is
// reachable from pending and confirmed only; delivered is terminal.
var validTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

// OrderService handles order reads, the status state machine, and payment
// capture.
type OrderService struct {
	orderRepo        repositories.OrderRepository
	productRepo      repositories.ProductRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	mail             mailer.Mailer
	publisher        rabbitmq.Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	mail mailer.Mailer,
	publisher rabbitmq.Publisher,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		productRepo:      productRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		mail:             mail,
		publisher:        publisher,
	}
}

// GetOrder retrieves one order, enforcing that the requester owns it (as
// buyer or farmer) unless they are an admin.
func (s *OrderService) GetOrder(id, requesterID, requesterRole string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if requesterRole != models.RoleAdmin && order.BuyerID != requesterID && order.FarmerID != requesterID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not own this order")
	}
	return order, nil
}

// ListBuyerOrders retrieves a page of the buyer's orders.
func (s *OrderService) ListBuyerOrders(buyerID string, offset, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.ListByBuyer(buyerID, offset, limit)
}

// ListFarmerOrders retrieves a page of the farmer's orders.
func (s *OrderService) ListFarmerOrders(farmerID string, offset, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.ListByFarmer(farmerID, offset, limit)
}

// ListAllOrders retrieves a page of all orders, for admins.
func (s *OrderService) ListAllOrders(offset, limit int) ([]models.Order, int64, error) {
	return s.orderRepo.ListAll(offset, limit)
}

// StatusUpdate carries a requested status transition.
type StatusUpdate struct {
	OrderID        string
	NewStatus      string
	TrackingNumber string
	Notes          string
	ActorID        string
	ActorRole      string
}

// UpdateStatus drives the order state machine. Only the owning farmer or an
// admin may transition an order. The status write is the source of truth;
// notification, email and event publication are best-effort afterwards.
func (s *OrderService) UpdateStatus(update StatusUpdate) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(update.OrderID)
	if err != nil {
		return nil, err
	}

	switch update.ActorRole {
	case models.RoleAdmin:
		// admins may transition any order
	case models.RoleFarmer:
		if order.FarmerID != update.ActorID {
			return nil, apperrors.New(apperrors.KindForbidden, "you do not own this order")
		}
	default:
		return nil, apperrors.New(apperrors.KindForbidden, "only farmers and admins can update order status")
	}

	if !transitionAllowed(order.Status, update.NewStatus) {
		return nil, apperrors.Validation("status",
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, update.NewStatus))
	}

	// The guarded write makes exactly one racing transition win; the loser
	// sees a conflict and never reaches the restock below.
	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, update.NewStatus, update.TrackingNumber); err != nil {
		return nil, err
	}

	// Cancellation returns the reserved stock to the catalog.
	if update.NewStatus == models.OrderStatusCancelled {
		s.restockOrder(order)
	}

	order.Status = update.NewStatus
	if update.TrackingNumber != "" {
		order.TrackingNumber = update.TrackingNumber
	}

	s.notifyStatusChange(order)
	return order, nil
}

// CapturePayment marks a pending payment as paid. Only the buying user can
// pay, and only while the order is pending or confirmed.
func (s *OrderService) CapturePayment(orderID, buyerID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not own this order")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperrors.New(apperrors.KindConflict, "order is already paid")
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, apperrors.Validation("status", "order can no longer be paid")
	}

	if err := s.orderRepo.UpdatePaymentStatus(order.ID, models.PaymentStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to capture payment for order %s: %w", order.ID, err)
	}
	order.PaymentStatus = models.PaymentStatusPaid
	return order, nil
}

// FailPayment records a failed capture: payment failed, order cancelled,
// stock returned.
func (s *OrderService) FailPayment(orderID string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if err := s.orderRepo.UpdatePaymentStatus(order.ID, models.PaymentStatusFailed); err != nil {
		return fmt.Errorf("failed to mark payment failed for order %s: %w", order.ID, err)
	}
	if transitionAllowed(order.Status, models.OrderStatusCancelled) {
		if err := s.orderRepo.UpdateStatus(order.ID, order.Status, models.OrderStatusCancelled, ""); err != nil {
			return fmt.Errorf("failed to cancel order %s after payment failure: %w", order.ID, err)
		}
		s.restockOrder(order)
		order.Status = models.OrderStatusCancelled
		s.notifyStatusChange(order)
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *OrderService) restockOrder(order *models.Order) {
	for _, item := range order.Items {
		if err := s.productRepo.RestoreStock(item.ProductID, item.Quantity); err != nil {
			zap.S().Errorf("failed to restock product %s for cancelled order %s: %v",
				item.ProductID, order.ID, err)
		}
	}
}

// notifyStatusChange writes a notification row, emails the buyer, and
// publishes the status event. Each step is logged on failure and never
// blocks the status update.
func (s *OrderService) notifyStatusChange(order *models.Order) {
	notification := &models.Notification{
		UserID: order.BuyerID,
		Type:   models.NotificationOrderStatusChanged,
		Title:  fmt.Sprintf("Order %s is now %s", order.ID, order.Status),
		Body:   fmt.Sprintf("Your order of %d item(s) has moved to status %q.", len(order.Items), order.Status),
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		zap.S().Warnf("failed to create status notification for order %s: %v", order.ID, err)
	}

	if s.mail != nil {
		if buyer, err := s.userRepo.GetByID(order.BuyerID); err != nil {
			zap.S().Warnf("failed to look up buyer %s for status email: %v", order.BuyerID, err)
		} else {
			subject := fmt.Sprintf("Your order is %s", order.Status)
			body := fmt.Sprintf("Hello %s,\n\nYour order %s is now %s. Total: %s.\n\nThe farmmarket team",
				buyer.Username, order.ID, order.Status, order.Total.StringFixed(2))
			if err := s.mail.Send(buyer.Email, subject, body); err != nil {
				zap.S().Warnf("failed to send status email for order %s: %v", order.ID, err)
			}
		}
	}

	if s.publisher != nil {
		body, err := json.Marshal(map[string]interface{}{
			"order_id":  order.ID,
			"buyer_id":  order.BuyerID,
			"farmer_id": order.FarmerID,
			"status":    order.Status,
		})
		if err != nil {
			zap.S().Errorf("failed to marshal status event for order %s: %v", order.ID, err)
			return
		}
		if err := s.publisher.Publish(rabbitmq.OrdersExchange, rabbitmq.RoutingOrderStatus, body); err != nil {
			zap.S().Warnf("failed to publish status event for order %s: %v", order.ID, err)
		}
	}
}
