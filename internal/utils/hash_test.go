package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentEventHash(t *testing.T) {
	t.Run("stable for identical events", func(t *testing.T) {
		a := PaymentEventHash("pi_123", "initial_investment", 100000)
		b := PaymentEventHash("pi_123", "initial_investment", 100000)
		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
	})

	t.Run("any field change produces a different hash", func(t *testing.T) {
		base := PaymentEventHash("pi_123", "initial_investment", 100000)

		assert.NotEqual(t, base, PaymentEventHash("pi_124", "initial_investment", 100000))
		assert.NotEqual(t, base, PaymentEventHash("pi_123", "change_settlement", 100000))
		assert.NotEqual(t, base, PaymentEventHash("pi_123", "initial_investment", 100001))
	})
}
