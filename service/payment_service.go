package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront-payments/apperrors"
	"storefront-payments/config"
	"storefront-payments/gateway"
	"storefront-payments/logging"
	"storefront-payments/models"
	"storefront-payments/money"
	"storefront-payments/monitoring"
	"storefront-payments/signature"
)

// PaymentService creates gateway orders and checks the gateway's payment
// callbacks. It holds no per-order state and is safe for concurrent use.
type PaymentService struct {
	tracer trace.Tracer
	cfg    config.Config
	mode   GatewayMode
	now    func() time.Time

	// last millisecond stamp handed out as a mock order id
	lastMockMillis atomic.Int64
}

// Option configures a PaymentService.
type Option func(*PaymentService)

// WithClock overrides the wall clock used for receipts and mock ids.
func WithClock(now func() time.Time) Option {
	return func(s *PaymentService) {
		s.now = now
	}
}

// NewPaymentService creates a new payment service
func NewPaymentService(tracer trace.Tracer, cfg config.Config, mode GatewayMode, opts ...Option) *PaymentService {
	s := &PaymentService{
		tracer: tracer,
		cfg:    cfg,
		mode:   mode,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DevMode reports whether the service runs without a real gateway.
func (s *PaymentService) DevMode() bool {
	_, mock := s.mode.(MockMode)
	return mock
}

// CreateOrder turns a purchase into a gateway order. Calling it twice creates
// two orders.
func (s *PaymentService) CreateOrder(ctx context.Context, req *models.OrderRequest) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "create_order")
	defer span.End()

	minor, ok := money.ToMinor(req.Amount)
	if !ok || req.Amount <= 0 || minor < 1 {
		return nil, apperrors.NewValidationError("Invalid amount")
	}

	now := s.now()
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	receipt := req.Receipt
	if receipt == "" {
		receipt = "receipt_" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	notes := req.Notes
	if notes == nil {
		notes = map[string]string{}
	}

	span.SetAttributes(
		attribute.Int64("payment.amount_minor", minor),
		attribute.String("payment.currency", currency),
		attribute.String("payment.receipt", receipt),
	)
	logger := logging.WithTraceContext(span)

	var order *models.Order
	switch m := s.mode.(type) {
	case MockMode:
		millis := s.nextMockMillis(now)
		order = &models.Order{
			ID:        "order_mock_" + strconv.FormatInt(millis, 10),
			Amount:    minor,
			Currency:  currency,
			Receipt:   receipt,
			Status:    models.OrderStatusCreated,
			Notes:     notes,
			CreatedAt: now.Unix(),
			KeyID:     MockKeyID,
			DevMode:   true,
		}
		logger.Info("Dev mode: created mock order", zap.String("order_id", order.ID))

	case LiveMode:
		gwCtx, cancel := s.gatewayContext(ctx)
		defer cancel()

		created, err := m.Gateway.CreateOrder(gwCtx, gateway.CreateOrderParams{
			Amount:   minor,
			Currency: currency,
			Receipt:  receipt,
			Notes:    gateway.Notes(notes),
		})
		if err != nil {
			s.countOrder(ctx, currency, "failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, "gateway order creation failed")
			logger.Error("Failed to create gateway order",
				zap.Error(err),
				zap.Int64("amount", minor),
				zap.String("currency", currency),
			)
			return nil, gatewayError("Failed to create order", err)
		}
		order = &models.Order{
			ID:        created.ID,
			Amount:    created.Amount,
			Currency:  created.Currency,
			Receipt:   created.Receipt,
			Status:    models.OrderStatusCreated,
			Notes:     map[string]string(created.Notes),
			CreatedAt: created.CreatedAt,
			KeyID:     s.cfg.KeyID,
		}
		logger.Info("Created gateway order", zap.String("order_id", order.ID))

	default:
		return nil, apperrors.NewInternalError("Unknown gateway mode", fmt.Sprintf("%T", s.mode))
	}

	s.countOrder(ctx, currency, "created")
	monitoring.OrderAmount.Record(ctx, minor,
		metric.WithAttributes(attribute.String("currency", currency)),
	)
	span.SetAttributes(attribute.String("payment.order_id", order.ID))

	return order, nil
}

// Verify checks the signature the gateway attached to a payment callback.
// It has no side effects; recording the outcome is the caller's job.
func (s *PaymentService) Verify(ctx context.Context, req *models.VerificationRequest) (*models.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "verify_payment")
	defer span.End()

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		s.countVerification(ctx, "invalid")
		return nil, apperrors.NewValidationError("Missing required payment details")
	}

	span.SetAttributes(
		attribute.String("payment.order_id", req.OrderID),
		attribute.String("payment.payment_id", req.PaymentID),
	)
	logger := logging.WithTraceContext(span)

	switch s.mode.(type) {
	case MockMode:
		s.countVerification(ctx, "mock")
		logger.Info("Dev mode: accepted payment without signature check",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
		)
		return &models.VerificationResult{
			Verified:  true,
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
			DevMode:   true,
		}, nil

	case LiveMode:
		if !signature.Verify(s.cfg.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
			s.countVerification(ctx, "rejected")
			span.SetStatus(codes.Error, "signature mismatch")
			logger.Warn("Payment signature mismatch",
				zap.String("order_id", req.OrderID),
				zap.String("payment_id", req.PaymentID),
			)
			return nil, apperrors.NewSignatureMismatchError("Payment verification failed", "Invalid signature")
		}
		s.countVerification(ctx, "verified")
		logger.Info("Payment verified",
			zap.String("order_id", req.OrderID),
			zap.String("payment_id", req.PaymentID),
		)
		return &models.VerificationResult{
			Verified:  true,
			PaymentID: req.PaymentID,
			OrderID:   req.OrderID,
		}, nil

	default:
		return nil, apperrors.NewInternalError("Unknown gateway mode", fmt.Sprintf("%T", s.mode))
	}
}

// GetPaymentStatus fetches a payment from the gateway. There is nothing to
// query in dev mode.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error) {
	ctx, span := s.tracer.Start(ctx, "get_payment_status")
	defer span.End()

	if paymentID == "" {
		return nil, apperrors.NewValidationError("Payment ID is required")
	}
	span.SetAttributes(attribute.String("payment.payment_id", paymentID))

	var live LiveMode
	switch m := s.mode.(type) {
	case MockMode:
		return nil, apperrors.NewUnsupportedInDevModeError("Payment status lookup")
	case LiveMode:
		live = m
	default:
		return nil, apperrors.NewInternalError("Unknown gateway mode", fmt.Sprintf("%T", s.mode))
	}

	gwCtx, cancel := s.gatewayContext(ctx)
	defer cancel()

	payment, err := live.Gateway.FetchPayment(gwCtx, paymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway payment fetch failed")
		logging.WithTraceContext(span).Error("Failed to fetch payment status",
			zap.Error(err),
			zap.String("payment_id", paymentID),
		)
		return nil, gatewayError("Failed to fetch payment status", err)
	}

	return &models.PaymentStatus{
		ID:        payment.ID,
		Amount:    money.ToMajor(payment.Amount),
		Currency:  payment.Currency,
		Status:    payment.Status,
		Method:    payment.Method,
		Email:     payment.Email,
		Contact:   payment.Contact,
		CreatedAt: payment.CreatedAt,
	}, nil
}

// Refund asks the gateway to refund a payment, fully when req.Amount is nil.
// No refund history is kept here.
func (s *PaymentService) Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResult, error) {
	ctx, span := s.tracer.Start(ctx, "refund_payment")
	defer span.End()

	if req.PaymentID == "" {
		return nil, apperrors.NewValidationError("Payment ID is required")
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, apperrors.NewValidationError("Invalid refund amount")
	}

	span.SetAttributes(
		attribute.String("payment.payment_id", req.PaymentID),
		attribute.Bool("refund.full", req.Amount == nil),
	)

	var live LiveMode
	switch m := s.mode.(type) {
	case MockMode:
		return nil, apperrors.NewUnsupportedInDevModeError("Refund")
	case LiveMode:
		live = m
	default:
		return nil, apperrors.NewInternalError("Unknown gateway mode", fmt.Sprintf("%T", s.mode))
	}

	gwCtx, cancel := s.gatewayContext(ctx)
	defer cancel()

	refund, err := live.Gateway.Refund(gwCtx, req.PaymentID, gateway.RefundParams{
		Amount: req.Amount,
		Notes:  gateway.Notes(req.Notes),
	})
	if err != nil {
		s.countRefund(ctx, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway refund failed")
		logging.WithTraceContext(span).Error("Failed to initiate refund",
			zap.Error(err),
			zap.String("payment_id", req.PaymentID),
		)
		return nil, gatewayError("Failed to initiate refund", err)
	}

	s.countRefund(ctx, "initiated")
	logging.WithTraceContext(span).Info("Refund initiated",
		zap.String("payment_id", req.PaymentID),
		zap.String("refund_id", refund.ID),
		zap.Int64("amount", refund.Amount),
	)

	return &models.RefundResult{
		ID:        refund.ID,
		Amount:    money.ToMajor(refund.Amount),
		Status:    refund.Status,
		PaymentID: refund.PaymentID,
	}, nil
}

// PublicConfig returns the checkout settings a browser may see. The key
// secret is never part of it.
func (s *PaymentService) PublicConfig() models.PublicConfig {
	keyID := s.cfg.KeyID
	if s.DevMode() {
		keyID = MockKeyID
	}
	methods := append([]string(nil), s.cfg.PaymentMethods...)
	return models.PublicConfig{
		KeyID:          keyID,
		Currency:       s.cfg.Currency,
		CompanyName:    s.cfg.CompanyName,
		CompanyLogo:    s.cfg.CompanyLogoURL,
		PaymentMethods: methods,
		DevMode:        s.DevMode(),
	}
}

func (s *PaymentService) gatewayContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.GatewayTimeout)
}

// nextMockMillis returns now in epoch millis, bumped past the previous mock
// id so two orders in the same millisecond still get distinct ids.
func (s *PaymentService) nextMockMillis(now time.Time) int64 {
	candidate := now.UnixMilli()
	for {
		last := s.lastMockMillis.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if s.lastMockMillis.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (s *PaymentService) countOrder(ctx context.Context, currency, status string) {
	monitoring.OrdersCreated.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("currency", currency),
			attribute.String("status", status),
			attribute.Bool("dev_mode", s.DevMode()),
		),
	)
}

func (s *PaymentService) countVerification(ctx context.Context, outcome string) {
	monitoring.Verifications.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

func (s *PaymentService) countRefund(ctx context.Context, outcome string) {
	monitoring.Refunds.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

func gatewayError(message string, err error) *apperrors.AppError {
	appErr := apperrors.NewGatewayError(message, err)
	if gateway.IsTimeout(err) {
		appErr.Details = "timeout"
	}
	return appErr
}
