package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasPaymentMethod(t *testing.T) {
	t.Run("クレジットカード登録済み", func(t *testing.T) {
		u := &User{
			ID:         "user-1",
			Username:   "alice",
			CreditCard: &CreditCard{Token: "tok-123", RegisteredAt: time.Now()},
		}
		assert.True(t, u.HasPaymentMethod())
	})

	t.Run("クレジットカード未登録", func(t *testing.T) {
		u := &User{ID: "user-1", Username: "alice"}
		assert.False(t, u.HasPaymentMethod())
	})
}
