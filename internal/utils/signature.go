package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// NewPaymentOrderID produces the opaque order reference handed to the
// payment gateway client and later echoed in the verification callback.
func NewPaymentOrderID() (string, error) {
	raw, err := randomHex(12)
	if err != nil {
		return "", err
	}
	return "order_" + raw, nil
}

// VerifyPaymentSignature checks a gateway callback signature: the hex
// HMAC-SHA256 of "orderID|paymentID" under the gateway secret. The
// comparison is constant time.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
