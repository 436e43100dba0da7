package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"campusDelivery/internal/apperr"
	"campusDelivery/internal/config"
	"campusDelivery/internal/events"
	"campusDelivery/internal/geo"
	"campusDelivery/internal/metrics"
	"campusDelivery/models"
	"campusDelivery/repository"

	"github.com/google/uuid"
)

const publishTimeout = 2 * time.Second

// CreateOrderInput carries the fields of a new order.
type CreateOrderInput struct {
	EstablishmentID     string
	Items               []models.OrderItem
	DeliveryLocation    models.Location
	SpecialInstructions *string
	DeliveryPoints      int64
}

// ListPage is one page of a customer's orders. NextToken is empty on the last page.
type ListPage struct {
	Orders    []models.Order
	NextToken string
}

// OrderService runs the order state machine:
//
//	pending -> accepted -> picked_up -> delivered -> completed
//	pending -> cancelled
//
// Each transition is one conditional write (or one transaction) in storage.
// When a write does not apply, the order is re-read only to pick the error.
type OrderService struct {
	orders         repository.OrderRepositoryI
	establishments repository.EstablishmentRepositoryI
	publisher      events.Publisher
	metrics        *metrics.Metrics
	log            *slog.Logger
	maxImageBytes  int64
	now            func() time.Time
}

func NewOrderService(
	orders repository.OrderRepositoryI,
	establishments repository.EstablishmentRepositoryI,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *slog.Logger,
	cfg config.OrdersConfig,
) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		orders:         orders,
		establishments: establishments,
		publisher:      publisher,
		metrics:        m,
		log:            log,
		maxImageBytes:  cfg.MaxImageBytes,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create places a pending order and holds its delivery points on the customer.
func (s *OrderService) Create(ctx context.Context, customerID string, in CreateOrderInput) (*models.Order, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	est, err := s.establishments.GetByID(ctx, in.EstablishmentID)
	if err != nil {
		return nil, apperr.Internal("load establishment", err)
	}
	if est == nil || !est.IsActive {
		return nil, apperr.NotFound("establishment not found")
	}

	o, err := s.orders.CreateWithHold(ctx, &models.Order{
		CustomerID:          customerID,
		EstablishmentID:     in.EstablishmentID,
		Items:               in.Items,
		DeliveryLocation:    in.DeliveryLocation,
		SpecialInstructions: in.SpecialInstructions,
		DeliveryPoints:      in.DeliveryPoints,
		CreatedAt:           s.now(),
	})
	switch {
	case errors.Is(err, repository.ErrInsufficientPoints):
		return nil, apperr.InsufficientFunds("insufficient points: %d needed", in.DeliveryPoints)
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, apperr.NotFound("user not found")
	case err != nil:
		return nil, apperr.Internal("create order", err)
	case o == nil:
		return nil, apperr.Internal("create order", errors.New("created order not found"))
	}
	s.transitioned(ctx, o)
	return o, nil
}

func validateCreate(in CreateOrderInput) error {
	if _, err := uuid.Parse(in.EstablishmentID); err != nil {
		return apperr.InvalidInput("invalid establishment id format")
	}
	if len(in.Items) == 0 {
		return apperr.InvalidInput("order must contain at least one item")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" {
			return apperr.InvalidInput("item %d: name is required", i)
		}
		if it.Quantity <= 0 {
			return apperr.InvalidInput("item %d: quantity must be positive", i)
		}
		if it.Price < 0 {
			return apperr.InvalidInput("item %d: price must not be negative", i)
		}
	}
	if in.DeliveryPoints <= 0 {
		return apperr.InvalidInput("delivery_points must be positive")
	}
	if !geo.ValidCoordinates(in.DeliveryLocation.Latitude, in.DeliveryLocation.Longitude) {
		return apperr.InvalidInput("delivery location is out of range")
	}
	return nil
}

// Accept assigns a pending order to the caller. Exactly one of several
// concurrent callers wins; the others get Conflict.
func (s *OrderService) Accept(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	err := s.orders.Accept(ctx, orderID, callerID, s.now())
	if errors.Is(err, repository.ErrNotApplied) {
		o, gerr := s.load(ctx, orderID)
		if gerr != nil {
			return nil, gerr
		}
		if o.CustomerID == callerID {
			return nil, apperr.Forbidden("cannot accept your own order")
		}
		return nil, apperr.Conflict("order is no longer available")
	}
	if err != nil {
		return nil, apperr.Internal("accept order", err)
	}
	return s.reload(ctx, orderID)
}

// AdvanceStatus moves an order along the deliverer's part of the lifecycle.
// Only picked_up and delivered are valid targets; delivered needs an image.
// A caller who is not the deliverer gets Forbidden even when the request is
// also malformed.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID, callerID string, target models.OrderStatus, imageURL *string) (*models.Order, error) {
	from, image, verr := advanceRule(target, imageURL)
	if verr != nil {
		if _, err := s.loadAsDeliverer(ctx, orderID, callerID); err != nil {
			return nil, err
		}
		return nil, verr
	}

	err := s.orders.Advance(ctx, orderID, callerID, from, target, image)
	if errors.Is(err, repository.ErrNotApplied) {
		o, gerr := s.loadAsDeliverer(ctx, orderID, callerID)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidState("cannot move order from %s to %s", o.Status, target)
	}
	if err != nil {
		return nil, apperr.Internal("update order status", err)
	}
	return s.reload(ctx, orderID)
}

// advanceRule returns the source states allowed for target and the image to record.
func advanceRule(target models.OrderStatus, imageURL *string) ([]models.OrderStatus, *string, error) {
	switch target {
	case models.OrderStatusPickedUp:
		return []models.OrderStatus{models.OrderStatusAccepted}, nil, nil
	case models.OrderStatusDelivered:
		if imageURL == nil || strings.TrimSpace(*imageURL) == "" {
			return nil, nil, apperr.InvalidInput("completion image is required to mark an order delivered")
		}
		return []models.OrderStatus{models.OrderStatusAccepted, models.OrderStatusPickedUp}, imageURL, nil
	default:
		return nil, nil, apperr.InvalidInput("status %q cannot be set directly", target)
	}
}

func (s *OrderService) loadAsDeliverer(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.DelivererID == nil || *o.DelivererID != callerID {
		return nil, apperr.Forbidden("only the assigned deliverer can update this order")
	}
	return o, nil
}

// UploadImage stores a completion photo as a data URL and marks the order delivered.
func (s *OrderService) UploadImage(ctx context.Context, orderID, callerID, contentType string, data []byte) (*models.Order, error) {
	contentType = strings.TrimSpace(contentType)
	if verr := s.checkImage(contentType, data); verr != nil {
		if _, err := s.loadAsDeliverer(ctx, orderID, callerID); err != nil {
			return nil, err
		}
		return nil, verr
	}
	url := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return s.AdvanceStatus(ctx, orderID, callerID, models.OrderStatusDelivered, &url)
}

func (s *OrderService) checkImage(contentType string, data []byte) error {
	if !strings.HasPrefix(contentType, "image/") {
		return apperr.InvalidInput("file must be an image")
	}
	if len(data) == 0 {
		return apperr.InvalidInput("image is empty")
	}
	if s.maxImageBytes > 0 && int64(len(data)) > s.maxImageBytes {
		return apperr.InvalidInput("image exceeds %d bytes", s.maxImageBytes)
	}
	return nil
}

// Complete confirms delivery and transfers the held points to the deliverer.
func (s *OrderService) Complete(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	err := s.orders.Settle(ctx, orderID, callerID, s.now())
	if errors.Is(err, repository.ErrNotApplied) {
		o, gerr := s.load(ctx, orderID)
		if gerr != nil {
			return nil, gerr
		}
		if o.CustomerID != callerID {
			return nil, apperr.Forbidden("only the customer can complete this order")
		}
		if o.Status == models.OrderStatusDelivered {
			// The order matched but a balance write did not.
			return nil, apperr.Internal("settle order", err)
		}
		return nil, apperr.InvalidState("order must be delivered before completion, current status: %s", o.Status)
	}
	if err != nil {
		return nil, apperr.Internal("settle order", err)
	}
	o, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.PointsSettled(o.DeliveryPoints)
	return o, nil
}

// Cancel withdraws a pending order and releases its held points.
func (s *OrderService) Cancel(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	err := s.orders.CancelWithRelease(ctx, orderID, callerID, s.now())
	if errors.Is(err, repository.ErrNotApplied) {
		o, gerr := s.load(ctx, orderID)
		if gerr != nil {
			return nil, gerr
		}
		if o.CustomerID != callerID {
			return nil, apperr.Forbidden("only the customer can cancel this order")
		}
		if o.Status == models.OrderStatusPending {
			return nil, apperr.Internal("cancel order", err)
		}
		return nil, apperr.InvalidState("only pending orders can be cancelled, current status: %s", o.Status)
	}
	if err != nil {
		return nil, apperr.Internal("cancel order", err)
	}
	return s.reload(ctx, orderID)
}

// Get returns an order visible to its customer or deliverer.
func (s *OrderService) Get(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParticipant(callerID) {
		return nil, apperr.Forbidden("not authorized to view this order")
	}
	return o, nil
}

// ListMine returns the caller's orders newest first. statusFilter may be empty.
func (s *OrderService) ListMine(ctx context.Context, callerID, statusFilter string, pageSize int, pageToken string) (*ListPage, error) {
	var status *models.OrderStatus
	if statusFilter != "" {
		st := models.OrderStatus(statusFilter)
		if !st.Valid() {
			return nil, apperr.InvalidInput("unknown status_filter %q", statusFilter)
		}
		status = &st
	}
	if pageSize < 0 {
		return nil, apperr.InvalidInput("page_size must not be negative")
	}
	page := repository.Page{Size: pageSize}
	if pageToken != "" {
		after, id, err := decodeCursor(pageToken)
		if err != nil {
			return nil, apperr.InvalidInput("invalid page_token: %v", err)
		}
		page.AfterCreatedAt, page.AfterID = after, id
	}
	list, err := s.orders.ListByCustomer(ctx, callerID, status, page)
	if err != nil {
		return nil, apperr.Internal("list orders", err)
	}
	out := &ListPage{Orders: nonNil(list)}
	if len(list) == page.Limit() {
		last := list[len(list)-1]
		out.NextToken = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

// ListAvailable returns pending orders the caller could accept.
func (s *OrderService) ListAvailable(ctx context.Context, callerID string) ([]models.Order, error) {
	list, err := s.orders.ListAvailable(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal("list available orders", err)
	}
	return nonNil(list), nil
}

// ListDelivering returns the caller's accepted and picked up orders.
func (s *OrderService) ListDelivering(ctx context.Context, callerID string) ([]models.Order, error) {
	list, err := s.orders.ListDelivering(ctx, callerID)
	if err != nil {
		return nil, apperr.Internal("list deliveries", err)
	}
	return nonNil(list), nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal("load order", err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

// reload fetches the order after a committed transition and reports it.
func (s *OrderService) reload(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, o)
	return o, nil
}

func (s *OrderService) transitioned(ctx context.Context, o *models.Order) {
	s.metrics.OrderTransition(string(o.Status))
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	e := events.ForOrder(uuid.NewString(), o, s.now())
	if err := s.publisher.Publish(pctx, e); err != nil {
		s.log.Warn("publish order event failed", "order_id", o.ID, "type", e.Type, "error", err)
	}
}

func nonNil(list []models.Order) []models.Order {
	if list == nil {
		return []models.Order{}
	}
	return list
}
