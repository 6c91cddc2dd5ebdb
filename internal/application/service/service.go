package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/domain"
	"github.com/benline/priority-gateway/internal/observability"
)

//go:generate mockgen -source internal/application/service/service.go -destination=internal/application/service/mocks_test.go -package=service

type OrderRepository interface {
	FetchOrders(ctx context.Context, statuses []string) (*domain.OrderList, error)
	UpdateStatus(ctx context.Context, orderName, status string) error
	AddAttachment(ctx context.Context, orderName, fileBase64 string) error
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type Mailer interface {
	SendApprovalEmail(ctx context.Context, token, orderID, recipient, reviewLink, customerName string) error
}

type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

type Snapshots interface {
	Save(ctx context.Context, list *domain.OrderList) error
	Load(ctx context.Context) (*domain.OrderList, error)
}

type Cache interface {
	Warm(orders []domain.Order)
	Get(name string) (domain.Order, bool)
}

const (
	msgUpdated         = "Order status updated successfully."
	msgUpdatedNoToken  = "Order status updated but failed to send email due to invalid token."
	msgUpdatedSendLost = "Order status updated but the approval email could not be sent."
	msgUpdatedAttached = "Order status updated and attachment added successfully."
)

// Service coordinates the status-change workflow: ERP write first, customer
// notification second. The notification never rolls back or fails a status
// change that already landed.
type Service struct {
	orders    OrderRepository
	tokens    TokenSource
	mailer    Mailer
	texts     TextSender
	snapshots Snapshots
	cache     Cache
	logger    *zap.Logger
	metrics   observability.Metrics

	approvalStatus string
	fetchStatuses  []string
}

func NewService(
	orders OrderRepository,
	tokens TokenSource,
	mailer Mailer,
	texts TextSender,
	snapshots Snapshots,
	cache Cache,
	approvalStatus string,
	fetchStatuses []string,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Service {
	return &Service{
		orders:         orders,
		tokens:         tokens,
		mailer:         mailer,
		texts:          texts,
		snapshots:      snapshots,
		cache:          cache,
		approvalStatus: approvalStatus,
		fetchStatuses:  fetchStatuses,
		logger:         logger,
		metrics:        metrics,
	}
}

// UpdateStatus patches the order's status and, when the new status is the
// approval status, notifies the customer. Exit points in order: missing
// fields, ERP failure, no notification needed, notification precondition
// missing (after the PATCH — the status change is the primary effect and
// stands), then the send itself with a single invalidate-and-retry.
func (s *Service) UpdateStatus(ctx context.Context, req domain.StatusUpdateRequest) (domain.UpdateResult, error) {
	var res domain.UpdateResult

	if req.OrderName == "" || req.Status == "" {
		return res, fmt.Errorf("%w: missing orderName or status", domain.ErrInvalidRequest)
	}

	t0 := time.Now()
	err := s.orders.UpdateStatus(ctx, req.OrderName, req.Status)
	s.metrics.ObserveUpstream("update_status", sinceMs(t0), err == nil)
	if err != nil {
		return res, err
	}

	if req.Status != s.approvalStatus {
		res.Message = msgUpdated
		return res, nil
	}
	if !req.WantsEmail() {
		s.logger.Info("email suppressed by request", zap.String("order", req.OrderName))
		res.Message = msgUpdated
		return res, nil
	}

	if req.Email == "" || req.ReviewLink == "" {
		// The PATCH already went through; callers get a 400 but the new
		// status stands.
		return res, fmt.Errorf("%w", domain.ErrMissingNotificationFields)
	}

	res.Notified, res.Message = s.notify(ctx, req)

	if req.PhoneNumber != "" && s.texts != nil {
		s.sendText(ctx, req)
	}

	return res, nil
}

// notify runs the send protocol: token, send, and on failure exactly one
// invalidate + re-acquire + resend. The outcome shapes the message only,
// never the overall result.
func (s *Service) notify(ctx context.Context, req domain.StatusUpdateRequest) (bool, string) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Error("no token for approval email",
			zap.String("order", req.OrderName),
			zap.Error(err),
		)
		s.metrics.ObserveMail(false, 0)
		return false, msgUpdatedNoToken
	}

	if err := s.mailer.SendApprovalEmail(ctx, token, req.OrderName, req.Email, req.ReviewLink, req.CustomerName); err == nil {
		s.metrics.ObserveMail(true, 1)
		return true, msgUpdated
	}

	s.logger.Warn("first email attempt failed, retrying with a fresh token",
		zap.String("order", req.OrderName),
	)
	s.tokens.Invalidate()
	s.metrics.IncTokenRefresh()

	token, err = s.tokens.Token(ctx)
	if err != nil {
		s.logger.Error("no token on email retry", zap.String("order", req.OrderName), zap.Error(err))
		s.metrics.ObserveMail(false, 1)
		return false, msgUpdatedNoToken
	}

	if err := s.mailer.SendApprovalEmail(ctx, token, req.OrderName, req.Email, req.ReviewLink, req.CustomerName); err != nil {
		s.logger.Error("email retry failed, giving up",
			zap.String("order", req.OrderName),
			zap.Error(err),
		)
		s.metrics.ObserveMail(false, 2)
		return false, msgUpdatedSendLost
	}

	s.metrics.ObserveMail(true, 2)
	return true, msgUpdated
}

func (s *Service) sendText(ctx context.Context, req domain.StatusUpdateRequest) {
	body := fmt.Sprintf("הגרפיקה להזמנה %s מוכנה לאישור: %s", req.OrderName, req.ReviewLink)
	if err := s.texts.SendText(ctx, req.PhoneNumber, body); err != nil {
		s.logger.Warn("whatsapp notification lost",
			zap.String("order", req.OrderName),
			zap.Error(err),
		)
	}
}

// UpdateStatusAndAttach posts the attachment first, then patches the
// status. The two writes are sequential, not transactional: a PATCH
// failure leaves the already-posted attachment in place.
func (s *Service) UpdateStatusAndAttach(ctx context.Context, req domain.StatusUpdateRequest) (domain.UpdateResult, error) {
	var res domain.UpdateResult

	if req.OrderName == "" || req.Status == "" {
		return res, fmt.Errorf("%w: missing orderName or status", domain.ErrInvalidRequest)
	}

	t0 := time.Now()
	err := s.orders.AddAttachment(ctx, req.OrderName, req.FileBase64)
	s.metrics.ObserveUpstream("add_attachment", sinceMs(t0), err == nil)
	if err != nil {
		return res, err
	}

	t0 = time.Now()
	err = s.orders.UpdateStatus(ctx, req.OrderName, req.Status)
	s.metrics.ObserveUpstream("update_status", sinceMs(t0), err == nil)
	if err != nil {
		return res, err
	}

	res.Message = msgUpdatedAttached
	return res, nil
}

// FetchOrders pulls the configured status set from the ERP, warms the
// order cache and persists a working-copy snapshot.
func (s *Service) FetchOrders(ctx context.Context) (*domain.OrderList, error) {
	t0 := time.Now()
	list, err := s.orders.FetchOrders(ctx, s.fetchStatuses)
	s.metrics.ObserveUpstream("fetch_orders", sinceMs(t0), err == nil)
	if err != nil {
		return nil, err
	}

	s.cache.Warm(list.Value)

	if err := s.snapshots.Save(ctx, list); err != nil {
		s.logger.Warn("snapshot save failed", zap.Error(err))
	}

	return list, nil
}

// Snapshot returns the last persisted working copy.
func (s *Service) Snapshot(ctx context.Context) (*domain.OrderList, error) {
	return s.snapshots.Load(ctx)
}

// GetOrder serves a single order from the cache, falling back to the
// snapshot when the cache has rolled it out.
func (s *Service) GetOrder(ctx context.Context, name string) (domain.Order, error) {
	if o, ok := s.cache.Get(name); ok {
		s.metrics.IncCacheHit()
		return o, nil
	}
	s.metrics.IncCacheMiss()

	list, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}
	for _, o := range list.Value {
		if o.Name() == name {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
