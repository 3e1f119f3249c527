package models

// CreateOrderResponse is the body of a successful POST /create-order.
type CreateOrderResponse struct {
	Success bool         `json:"success"`
	Order   OrderSummary `json:"order"`
	KeyID   string       `json:"key_id"`
	DevMode bool         `json:"dev_mode,omitempty"`
}

// OrderSummary is the subset of an order the checkout widget needs.
type OrderSummary struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// VerifyPaymentBody accepts both the camelCase names and the razorpay_*
// names the checkout widget posts.
type VerifyPaymentBody struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// ToRequest folds the two naming schemes together; camelCase wins.
func (b VerifyPaymentBody) ToRequest() VerificationRequest {
	return VerificationRequest{
		OrderID:   firstNonEmpty(b.OrderID, b.RazorpayOrderID),
		PaymentID: firstNonEmpty(b.PaymentID, b.RazorpayPaymentID),
		Signature: firstNonEmpty(b.Signature, b.RazorpaySignature),
	}
}

// VerifyPaymentResponse is the body of a successful POST /verify.
type VerifyPaymentResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	DevMode   bool   `json:"dev_mode,omitempty"`
}

// RefundBody is the body of POST /refund. Amount is in major units and
// optional.
type RefundBody struct {
	PaymentID string            `json:"payment_id"`
	Amount    *float64          `json:"amount,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
}

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
