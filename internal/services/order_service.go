package services

import (
	"encoding/json"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher publishes order lifecycle events to the message broker.
// Publishing is best-effort: failures are logged, never surfaced to callers.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderService handles the order workflow: creation from validated items,
// status transitions and admin maintenance.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	events      EventPublisher
	log         *zap.Logger
}

// NewOrderService creates a new OrderService. events may be nil, in which
// case no lifecycle events are published.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, events EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		events:      events,
		log:         log,
	}
}

// CreateOrderInput is the caller-supplied order. TotalPrice is declared by
// the caller and stored as-is, not recomputed from item prices.
type CreateOrderInput struct {
	UserID     string             `json:"user_id" validate:"required"`
	Items      []models.OrderItem `json:"items" validate:"required,min=1"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
}

// CreateOrder validates every item against product existence and persists the
// order with its item snapshots atomically; any missing product aborts the
// whole order. Allowed for the order's owner or an admin.
func (s *OrderService) CreateOrder(principal *models.User, input CreateOrderInput) (*models.Order, error) {
	if err := RequireOwnerOrAdmin(principal, input.UserID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(input.UserID); err != nil {
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, apperr.Validationf("order requires at least one item")
	}
	for i := range input.Items {
		if input.Items[i].Quantity <= 0 {
			return nil, apperr.Validationf("quantity must be a positive integer")
		}
		if _, err := s.productRepo.GetByID(input.Items[i].ProductID); err != nil {
			return nil, err
		}
	}

	status := input.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	order := &models.Order{
		UserID:     input.UserID,
		TotalPrice: input.TotalPrice,
		Status:     status,
		Items:      input.Items,
		CreatedAt:  createdAt,
		UpdatedAt:  time.Now(),
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.publish("order.created", order)
	return order, nil
}

// ListOrders returns all orders. Admin only.
func (s *OrderService) ListOrders(principal *models.User) ([]models.Order, error) {
	if err := RequireAdmin(principal); err != nil {
		return nil, err
	}
	return s.orderRepo.GetAll()
}

// GetOrder returns an order, visible to its owner or an admin. Other callers
// get an explicit forbidden, not a mask.
func (s *OrderService) GetOrder(principal *models.User, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(principal, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// OrderUpdate carries partial order mutations; nil fields are left untouched.
// Status strings are accepted as-is, not validated against a closed set.
type OrderUpdate struct {
	TotalPrice *decimal.Decimal `json:"total_price"`
	Status     *string          `json:"status"`
}

// UpdateOrder applies a partial update. Admin only.
func (s *OrderService) UpdateOrder(principal *models.User, orderID string, update OrderUpdate) (*models.Order, error) {
	if err := RequireAdmin(principal); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if update.TotalPrice != nil {
		order.TotalPrice = *update.TotalPrice
	}
	if update.Status != nil {
		order.Status = *update.Status
	}
	order.UpdatedAt = time.Now()

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder moves a pending order to cancelled. Owner only. Cancelling an
// already-cancelled order is a conflict, not a no-op, and there is no
// transition out of any other terminal status either.
func (s *OrderService) CancelOrder(principal *models.User, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if principal == nil || principal.ID != order.UserID {
		return nil, apperr.Forbiddenf("only the order owner may cancel it")
	}

	if order.Status == models.OrderStatusCancelled {
		return nil, apperr.Conflictf("order %s is already cancelled", orderID)
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Conflictf("order %s cannot be cancelled in status %s", orderID, order.Status)
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("order.cancelled", order)
	return order, nil
}

// DeleteOrder removes an order and its items. Admin only.
func (s *OrderService) DeleteOrder(principal *models.User, orderID string) error {
	if err := RequireAdmin(principal); err != nil {
		return err
	}
	return s.orderRepo.Delete(orderID)
}

func (s *OrderService) publish(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"order_id":    order.ID,
		"user_id":     order.UserID,
		"status":      order.Status,
		"total_price": order.TotalPrice,
	})
	if err != nil {
		s.log.Error("failed to marshal order event", zap.Error(err))
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("routing_key", routingKey),
			zap.String("order_id", order.ID),
			zap.Error(err))
		return
	}
	s.log.Info("published order event",
		zap.String("routing_key", routingKey),
		zap.String("order_id", order.ID))
}
