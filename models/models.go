package models

// OrderStatusCreated is the only status this service ever assigns to an order.
const OrderStatusCreated = "created"

// OrderRequest is a purchase to turn into a gateway order. Amount is in
// major units.
type OrderRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency,omitempty"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the gateway order handed back to the checkout widget. Amount is
// in minor units.
type Order struct {
	ID        string
	Amount    int64
	Currency  string
	Receipt   string
	Status    string
	Notes     map[string]string
	CreatedAt int64

	// KeyID is the public key the checkout widget must use with this order.
	KeyID   string
	DevMode bool
}

// VerificationRequest carries the fields the checkout widget returns on
// payment success.
type VerificationRequest struct {
	OrderID   string
	PaymentID string
	Signature string
}

// VerificationResult is the outcome of a successful verification.
type VerificationResult struct {
	Verified  bool
	PaymentID string
	OrderID   string
	DevMode   bool
}

// PaymentStatus is a gateway payment as reported to clients. Amount is in
// major units.
type PaymentStatus struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Status    string  `json:"status"`
	Method    string  `json:"method"`
	Email     string  `json:"email"`
	Contact   string  `json:"contact"`
	CreatedAt int64   `json:"created_at"`
}

// RefundRequest asks the gateway to refund a payment. A nil Amount (minor
// units) refunds the full payment.
type RefundRequest struct {
	PaymentID string
	Amount    *int64
	Notes     map[string]string
}

// RefundResult is a refund as reported to clients. Amount is in major units.
type RefundResult struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	PaymentID string  `json:"payment_id"`
}

// PublicConfig is the checkout configuration safe to hand to browsers.
type PublicConfig struct {
	KeyID          string   `json:"key_id"`
	Currency       string   `json:"currency"`
	CompanyName    string   `json:"company_name"`
	CompanyLogo    string   `json:"company_logo"`
	PaymentMethods []string `json:"payment_methods"`
	DevMode        bool     `json:"dev_mode,omitempty"`
}
