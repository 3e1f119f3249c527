// Package signature implements the Razorpay checkout signature scheme:
// lowercase hex HMAC-SHA256 over "<order_id>|<payment_id>" keyed with the
// merchant key secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Payload builds the signed message for an order and payment pair.
func Payload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// Sign returns the signature the gateway would attach to a successful payment.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Payload(orderID, paymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether got is the expected signature. The comparison is
// constant time.
func Verify(secret, orderID, paymentID, got string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(got))
}
