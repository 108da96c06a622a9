package services

import (
	"fmt"

	"go.uber.org/zap"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// DisputeService manages order disputes and their admin resolution.
type DisputeService struct {
	disputeRepo      repositories.DisputeRepository
	orderRepo        repositories.OrderRepository
	notificationRepo repositories.NotificationRepository
}

// NewDisputeService creates a new DisputeService.
func NewDisputeService(
	disputeRepo repositories.DisputeRepository,
	orderRepo repositories.OrderRepository,
	notificationRepo repositories.NotificationRepository,
) *DisputeService {
	return &DisputeService{
		disputeRepo:      disputeRepo,
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
	}
}

// RaiseDispute opens a dispute on an order the user participates in.
func (s *DisputeService) RaiseDispute(orderID, raisedByID, reason string) (*models.Dispute, error) {
	if len(reason) < 10 {
		return nil, apperrors.Validation("reason", "reason must be at least 10 characters")
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != raisedByID && order.FarmerID != raisedByID {
		return nil, apperrors.New(apperrors.KindForbidden, "you are not a party to this order")
	}

	dispute := &models.Dispute{
		OrderID:    orderID,
		RaisedByID: raisedByID,
		Reason:     reason,
		Status:     models.DisputeOpen,
	}
	if err := s.disputeRepo.Create(dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

// ListDisputes returns a page of disputes, optionally filtered by status.
func (s *DisputeService) ListDisputes(status string, offset, limit int) ([]models.Dispute, int64, error) {
	return s.disputeRepo.List(status, offset, limit)
}

// Resolve closes a dispute with a resolution note and notifies the raiser.
func (s *DisputeService) Resolve(id, status, resolution string) (*models.Dispute, error) {
	if status != models.DisputeResolved && status != models.DisputeRejected {
		return nil, apperrors.Validation("status", "status must be resolved or rejected")
	}
	dispute, err := s.disputeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if dispute.Status != models.DisputeOpen {
		return nil, apperrors.New(apperrors.KindConflict, "dispute is already closed")
	}

	dispute.Status = status
	dispute.Resolution = resolution
	if err := s.disputeRepo.Update(dispute); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID: dispute.RaisedByID,
		Type:   models.NotificationDisputeResolved,
		Title:  fmt.Sprintf("Dispute %s", status),
		Body:   fmt.Sprintf("Your dispute on order %s was %s. %s", dispute.OrderID, status, resolution),
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		zap.S().Warnf("failed to notify user %s of dispute resolution: %v", dispute.RaisedByID, err)
	}
	return dispute, nil
}
