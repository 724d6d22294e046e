package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// PaymentEventHash derives a stable content hash for a payment confirmation
// event. Payment providers redeliver webhooks; a deal whose
// LastProcessedPaymentHash already equals this hash has settled the event and
// treats the redelivery as a no-op.
func PaymentEventHash(intentID string, purpose string, amount int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", intentID, purpose, amount)))
	return hex.EncodeToString(sum[:])
}
