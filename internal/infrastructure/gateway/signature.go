package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC-SHA256(payload, secret)).
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the signature header of a webhook delivery
// against the raw request body. An empty secret never verifies.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyPaymentSignature checks the signature the checkout widget returns on
// success: HMAC-SHA256 of "order_id|payment_id" keyed with the API key secret.
func VerifyPaymentSignature(orderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" || signature == "" || orderID == "" || paymentID == "" {
		return false
	}
	expected := Sign([]byte(orderID+"|"+paymentID), keySecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
