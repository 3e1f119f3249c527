package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"storefront-payments/config"
	"storefront-payments/gateway"
	"storefront-payments/service"
	"storefront-payments/signature"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "s3cr3t"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	DevMode bool            `json:"dev_mode"`
	KeyID   string          `json:"key_id"`
	Order   json.RawMessage `json:"order"`
	Payment json.RawMessage `json:"payment"`
	Refund  json.RawMessage `json:"refund"`
	Config  json.RawMessage `json:"config"`

	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
}

func baseConfig() config.Config {
	return config.Config{
		Currency:       "INR",
		CompanyName:    "Tanishq Jewelry",
		CompanyLogoURL: "https://your-logo-url.com/logo.png",
		PaymentMethods: []string{"netbanking", "card", "upi", "wallet", "emi"},
		AllowedOrigins: []string{"*"},
		GatewayTimeout: 2 * time.Second,
	}
}

func newDevRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := baseConfig()
	cfg.DevMode = true
	svc := service.NewPaymentService(noop.NewTracerProvider().Tracer("test"), cfg, service.MockMode{})
	return NewRouter(NewPaymentHandler(svc), RouterOptions{ServiceName: "test", AllowedOrigins: cfg.AllowedOrigins})
}

// newLiveRouter points a real Razorpay client at a fake gateway server.
func newLiveRouter(t *testing.T, gatewayHandler http.HandlerFunc) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(gatewayHandler)
	t.Cleanup(srv.Close)

	cfg := baseConfig()
	cfg.KeyID = "rzp_test_live"
	cfg.KeySecret = testSecret
	client := gateway.NewRazorpayClient(srv.URL, cfg.KeyID, cfg.KeySecret, cfg.GatewayTimeout)
	svc := service.NewPaymentService(noop.NewTracerProvider().Tracer("test"), cfg, service.LiveMode{Gateway: client})
	return NewRouter(NewPaymentHandler(svc), RouterOptions{ServiceName: "test", AllowedOrigins: cfg.AllowedOrigins})
}

func perform(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestCreateOrder_DevMode(t *testing.T) {
	r := newDevRouter(t)

	w, env := perform(t, r, http.MethodPost, "/api/payment/create-order", gin.H{"amount": 100.00})
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, env.Success)
	assert.True(t, env.DevMode)
	assert.Equal(t, service.MockKeyID, env.KeyID)

	var order struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(env.Order, &order))
	assert.Regexp(t, `^order_mock_\d+$`, order.ID)
	assert.Equal(t, int64(10000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Regexp(t, `^receipt_\d+$`, order.Receipt)
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	r := newDevRouter(t)

	for _, body := range []any{gin.H{}, gin.H{"amount": 0}, gin.H{"amount": -5}} {
		w, env := perform(t, r, http.MethodPost, "/api/payment/create-order", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "Invalid amount", env.Message)
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	w, env := perform(t, newDevRouter(t), http.MethodPost, "/api/payment/create-order", `{"amount":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Invalid request body", env.Message)
}

func TestVerify_DevMode(t *testing.T) {
	w, env := perform(t, newDevRouter(t), http.MethodPost, "/api/payment/verify", gin.H{
		"orderId":   "order_mock_1",
		"paymentId": "pay_mock_1",
		"signature": "anything",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, env.Success)
	assert.True(t, env.DevMode)
	assert.Equal(t, "Payment verified successfully (dev mode)", env.Message)
	assert.Equal(t, "pay_mock_1", env.PaymentID)
	assert.Equal(t, "order_mock_1", env.OrderID)
}

func TestVerify_MissingFields(t *testing.T) {
	w, env := perform(t, newDevRouter(t), http.MethodPost, "/api/payment/verify", gin.H{
		"orderId":   "order_mock_1",
		"signature": "anything",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Missing required payment details", env.Message)
}

func TestStatusAndRefund_DevModeUnsupported(t *testing.T) {
	r := newDevRouter(t)

	w, env := perform(t, r, http.MethodGet, "/api/payment/status/pay_1", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.False(t, env.Success)

	w, env = perform(t, r, http.MethodPost, "/api/payment/refund", gin.H{"payment_id": "pay_1"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.False(t, env.Success)
}

func TestRefund_RequiresPaymentID(t *testing.T) {
	w, env := perform(t, newDevRouter(t), http.MethodPost, "/api/payment/refund", gin.H{"amount": 10})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Payment ID is required", env.Message)
}

func TestConfig(t *testing.T) {
	w, env := perform(t, newDevRouter(t), http.MethodGet, "/api/payment/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(env.Config, &cfg))
	assert.Equal(t, service.MockKeyID, cfg["key_id"])
	assert.Equal(t, "INR", cfg["currency"])
	assert.Equal(t, "Tanishq Jewelry", cfg["company_name"])
	assert.Equal(t, "https://your-logo-url.com/logo.png", cfg["company_logo"])
	assert.Equal(t, true, cfg["dev_mode"])
}

func TestConfig_LiveHidesSecret(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("config must not reach the gateway")
	})

	w, _ := perform(t, r, http.MethodGet, "/api/payment/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), testSecret)
	assert.Contains(t, w.Body.String(), `"key_id":"rzp_test_live"`)
	assert.NotContains(t, w.Body.String(), "dev_mode")
}

func TestCreateOrder_Live(t *testing.T) {
	var sent map[string]any
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = io.WriteString(w, `{"id":"order_IluGWxBm9U8zJ8","entity":"order","amount":249999,
			"currency":"INR","receipt":"cart_7","status":"created","notes":{"sku":"NECK-01"}}`)
	})

	w, env := perform(t, r, http.MethodPost, "/api/payment/create-order", gin.H{
		"amount":  2499.99,
		"receipt": "cart_7",
		"notes":   gin.H{"sku": "NECK-01"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(249999), sent["amount"])
	assert.Equal(t, "INR", sent["currency"])
	assert.True(t, env.Success)
	assert.False(t, env.DevMode)
	assert.Equal(t, "rzp_test_live", env.KeyID)
	assert.NotContains(t, w.Body.String(), "dev_mode")
	assert.Contains(t, string(env.Order), `"id":"order_IluGWxBm9U8zJ8"`)
}

func TestCreateOrder_LiveGatewayFailure(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`)
	})

	w, env := perform(t, r, http.MethodPost, "/api/payment/create-order", gin.H{"amount": 10})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to create order", env.Message)
	assert.Equal(t, "Authentication failed", env.Error)
}

func TestVerify_Live(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("verification must not reach the gateway")
	})
	sig := signature.Sign(testSecret, "order_1", "pay_1")

	w, env := perform(t, r, http.MethodPost, "/api/payment/verify", gin.H{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  sig,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Payment verified successfully", env.Message)
	assert.False(t, env.DevMode)

	w, env = perform(t, r, http.MethodPost, "/api/payment/verify", gin.H{
		"orderId":   "order_1",
		"paymentId": "pay_1",
		"signature": strings.Repeat("0", 64),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Payment verification failed", env.Message)
	assert.Equal(t, "Invalid signature", env.Error)
}

func TestStatus_Live(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"pay_1","amount":1999,"currency":"INR","status":"captured",
			"method":"card","email":"buyer@example.com","contact":"+919000090000","created_at":1700000000}`)
	})

	w, env := perform(t, r, http.MethodGet, "/api/payment/status/pay_1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payment map[string]any
	require.NoError(t, json.Unmarshal(env.Payment, &payment))
	assert.Equal(t, 19.99, payment["amount"])
	assert.Equal(t, "captured", payment["status"])
	assert.Equal(t, "card", payment["method"])
	assert.Equal(t, float64(1700000000), payment["created_at"])
}

func TestStatus_LiveGatewayFailure(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`)
	})

	w, env := perform(t, r, http.MethodGet, "/api/payment/status/pay_missing", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to fetch payment status", env.Message)
	assert.Equal(t, "The id provided does not exist", env.Error)
}

func TestRefund_Live(t *testing.T) {
	var sent map[string]any
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/refund", r.URL.Path)
		sent = nil
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		amount := int64(500000)
		if v, ok := sent["amount"].(float64); ok {
			amount = int64(v)
		}
		_ = json.NewEncoder(w).Encode(gin.H{"id": "rfnd_1", "amount": amount, "status": "processed", "payment_id": "pay_1"})
	})

	w, env := perform(t, r, http.MethodPost, "/api/payment/refund", gin.H{"payment_id": "pay_1"})
	require.Equal(t, http.StatusOK, w.Code)
	_, hasAmount := sent["amount"]
	assert.False(t, hasAmount, "full refund must not send an amount")
	assert.Contains(t, string(env.Refund), `"amount":5000`)

	w, env = perform(t, r, http.MethodPost, "/api/payment/refund", gin.H{"payment_id": "pay_1", "amount": 25.5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2550), sent["amount"])
	assert.Equal(t, "Refund initiated successfully", env.Message)
	assert.Contains(t, string(env.Refund), `"amount":25.5`)
}

func TestRefund_AmountTooLarge(t *testing.T) {
	r := newLiveRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("out of range refund must not reach the gateway")
	})

	w, env := perform(t, r, http.MethodPost, "/api/payment/refund", gin.H{"payment_id": "pay_1", "amount": 1e18})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid refund amount", env.Message)
}

func TestHealthAndRequestID(t *testing.T) {
	r := newDevRouter(t)

	w, _ := perform(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	newDevRouter(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/payment/create-order", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	newDevRouter(t).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://the-jewellery-store.vercel.app"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://the-jewellery-store.vercel.app")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://the-jewellery-store.vercel.app", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
