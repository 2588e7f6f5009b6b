package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Gateway endpoint paths. They are part of what gets signed.
const (
	PayPath          = "/pg/v1/pay"
	StatusPathPrefix = "/pg/v1/status"
)

// Checksum signs a gateway call: hex(sha256(body + path + salt)) + "###" + index.
// Status checks sign an empty body.
func Checksum(body, path, salt string, index int) string {
	sum := sha256.Sum256([]byte(body + path + salt))
	return hex.EncodeToString(sum[:]) + "###" + strconv.Itoa(index)
}

// StatusPath is the status endpoint path of one transaction.
func StatusPath(merchantID, merchantTransactionID string) string {
	return StatusPathPrefix + "/" + merchantID + "/" + merchantTransactionID
}

// StatusChecksum signs the status check of one transaction.
func StatusChecksum(merchantID, merchantTransactionID, salt string, index int) string {
	return Checksum("", StatusPath(merchantID, merchantTransactionID), salt, index)
}

// NewTransactionID derives a per-attempt merchant transaction id from the order id.
func NewTransactionID(orderID string, now time.Time) string {
	return orderID + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}
