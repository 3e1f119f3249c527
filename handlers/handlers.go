package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront-payments/apperrors"
	"storefront-payments/logging"
	"storefront-payments/models"
	"storefront-payments/money"
)

// PaymentService is what the handlers need from the payment core.
type PaymentService interface {
	CreateOrder(ctx context.Context, req *models.OrderRequest) (*models.Order, error)
	Verify(ctx context.Context, req *models.VerificationRequest) (*models.VerificationResult, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (*models.PaymentStatus, error)
	Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResult, error)
	PublicConfig() models.PublicConfig
}

// PaymentHandler handles HTTP requests for payments
type PaymentHandler struct {
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreateOrder handles POST /create-order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateOrderResponse{
		Success: true,
		Order: models.OrderSummary{
			ID:       order.ID,
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.Receipt,
		},
		KeyID:   order.KeyID,
		DevMode: order.DevMode,
	})
}

// VerifyPayment handles POST /verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var body models.VerifyPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		invalidBody(c, err)
		return
	}

	req := body.ToRequest()
	result, err := h.paymentService.Verify(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Payment verified successfully"
	if result.DevMode {
		message += " (dev mode)"
	}
	trace.SpanFromContext(c.Request.Context()).AddEvent("payment_verified")

	c.JSON(http.StatusOK, models.VerifyPaymentResponse{
		Success:   true,
		Message:   message,
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		DevMode:   result.DevMode,
	})
}

// PaymentStatus handles GET /status/:paymentId
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	status, err := h.paymentService.GetPaymentStatus(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "payment": status})
}

// Refund handles POST /refund. The body amount is in major units.
func (h *PaymentHandler) Refund(c *gin.Context) {
	var body models.RefundBody
	if err := c.ShouldBindJSON(&body); err != nil {
		invalidBody(c, err)
		return
	}

	req := models.RefundRequest{
		PaymentID: body.PaymentID,
		Notes:     body.Notes,
	}
	if body.Amount != nil {
		minor, ok := money.ToMinor(*body.Amount)
		if !ok {
			respondError(c, apperrors.NewValidationError("Invalid refund amount"))
			return
		}
		req.Amount = &minor
	}

	refund, err := h.paymentService.Refund(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refund initiated successfully",
		"refund":  refund,
	})
}

// Config handles GET /config
func (h *PaymentHandler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "config": h.paymentService.PublicConfig()})
}

// HealthCheck handles health check requests
func (h *PaymentHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func invalidBody(c *gin.Context, err error) {
	logging.WithTraceContext(trace.SpanFromContext(c.Request.Context())).
		Warn("Invalid request body", zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Message: "Invalid request body",
	})
}

// respondError renders err as the failure envelope. Errors outside the
// taxonomy become a bare 500.
func respondError(c *gin.Context, err error) {
	logger := logging.WithTraceContext(trace.SpanFromContext(c.Request.Context()))

	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	if appErr.Code >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err), zap.String("path", c.FullPath()))
	} else {
		logger.Info("Request rejected", zap.Error(err), zap.String("path", c.FullPath()))
	}

	c.JSON(appErr.Code, models.ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Error:   appErr.Details,
	})
}
