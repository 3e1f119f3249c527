package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"storefront-payments/logging"
	"storefront-payments/monitoring"
)

// RazorpayClient is a PaymentGateway backed by the Razorpay REST API.
type RazorpayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// NewRazorpayClient creates a client authenticating with keyID/keySecret.
// timeout bounds every request, including reading the response.
func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	return &RazorpayClient{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	if params.Notes == nil {
		params.Notes = Notes{}
	}
	var order Order
	if err := c.do(ctx, "create_order", http.MethodPost, "/orders", params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	path := "/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, "fetch_payment", http.MethodGet, path, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, paymentID string, params RefundParams) (*Refund, error) {
	if params.Notes == nil {
		params.Notes = Notes{}
	}
	var refund Refund
	path := "/payments/" + url.PathEscape(paymentID) + "/refund"
	if err := c.do(ctx, "refund", http.MethodPost, path, params, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *RazorpayClient) do(ctx context.Context, operation, method, path string, body, out any) error {
	// otelhttp already instruments the request; tag the caller's span as well
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("external.service", "razorpay"),
		attribute.String("external.operation", operation),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		c.record(ctx, operation, "error", duration)
		span.SetAttributes(attribute.String("external.status", "error"))
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(ctx, operation, "failed", duration)
		span.SetAttributes(
			attribute.Int("external.status_code", resp.StatusCode),
			attribute.String("external.status", "failed"),
		)
		apiErr := decodeAPIError(resp)
		logging.WithTraceContext(span).Warn("Payment gateway rejected request",
			zap.String("operation", operation),
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("description", apiErr.Description),
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.record(ctx, operation, "failed", duration)
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	c.record(ctx, operation, "success", duration)
	span.SetAttributes(attribute.String("external.status", "success"))
	return nil
}

func (c *RazorpayClient) record(ctx context.Context, operation, status string, seconds float64) {
	monitoring.ExternalCallDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func decodeAPIError(resp *http.Response) *APIError {
	var envelope struct {
		Error APIError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &envelope); err != nil || (envelope.Error.Code == "" && envelope.Error.Description == "") {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        http.StatusText(resp.StatusCode),
			Description: fmt.Sprintf("payment gateway returned status %d", resp.StatusCode),
		}
	}
	envelope.Error.StatusCode = resp.StatusCode
	return &envelope.Error
}
