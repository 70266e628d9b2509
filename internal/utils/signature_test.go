package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	sig := sign("s3cret", "order_abc", "pay_123")
	assert.True(t, VerifyPaymentSignature("s3cret", "order_abc", "pay_123", sig))
	assert.False(t, VerifyPaymentSignature("s3cret", "order_abc", "pay_999", sig))
	assert.False(t, VerifyPaymentSignature("wrong", "order_abc", "pay_123", sig))
	assert.False(t, VerifyPaymentSignature("s3cret", "order_abc", "pay_123", "deadbeef"))
}

func TestNewPaymentOrderID(t *testing.T) {
	a, err := NewPaymentOrderID()
	require.NoError(t, err)
	b, err := NewPaymentOrderID()
	require.NoError(t, err)
	assert.Regexp(t, `^order_[0-9a-f]{24}$`, a)
	assert.NotEqual(t, a, b)
}
