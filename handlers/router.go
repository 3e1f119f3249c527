package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	ServiceName    string
	AllowedOrigins []string
}

// NewRouter wires the payment routes under /api/payment together with
// health and Prometheus endpoints.
func NewRouter(h *PaymentHandler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(opts.ServiceName))
	r.Use(RequestID())
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(HTTPMetrics())

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	payment := r.Group("/api/payment")
	{
		payment.POST("/create-order", h.CreateOrder)
		payment.POST("/verify", h.VerifyPayment)
		payment.GET("/status/:paymentId", h.PaymentStatus)
		payment.POST("/refund", h.Refund)
		payment.GET("/config", h.Config)
	}

	return r
}
