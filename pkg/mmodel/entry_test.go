package mmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CroesusLabs/croesus/pkg/constant"
)

func timeMustParse(t *testing.T, s string) time.Time {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)

	return ts
}

func TestUnbalancedCurrency(t *testing.T) {
	balanced := []Entryable{
		&Entry{Type: constant.DebitEntry, Amount: d(1000), Currency: "EUR"},
		&Entry{Type: constant.CreditEntry, Amount: d(1000), Currency: "EUR"},
	}

	_, unbalanced := UnbalancedCurrency(balanced)
	assert.False(t, unbalanced)

	skewed := []Entryable{
		&Entry{Type: constant.DebitEntry, Amount: d(1000), Currency: "EUR"},
		&Entry{Type: constant.CreditEntry, Amount: d(900), Currency: "EUR"},
	}

	currency, unbalanced := UnbalancedCurrency(skewed)
	assert.True(t, unbalanced)
	assert.Equal(t, "EUR", currency)
}

func TestUnbalancedCurrencyIsPerCurrency(t *testing.T) {
	// EUR balances, USD does not; the USD skew must be reported even
	// though the grand totals happen to balance.
	mixed := []Entryable{
		&Entry{Type: constant.DebitEntry, Amount: d(500), Currency: "EUR"},
		&Entry{Type: constant.CreditEntry, Amount: d(500), Currency: "EUR"},
		&Entry{Type: constant.DebitEntry, Amount: d(300), Currency: "USD"},
		&Entry{Type: constant.CreditEntry, Amount: d(200), Currency: "USD"},
		&Entry{Type: constant.CreditEntry, Amount: d(100), Currency: "GBP"},
		&Entry{Type: constant.DebitEntry, Amount: d(100), Currency: "GBP"},
	}

	currency, unbalanced := UnbalancedCurrency(mixed)
	assert.True(t, unbalanced)
	assert.Equal(t, "USD", currency)
}

func TestQueueItemPrependError(t *testing.T) {
	item := &CommandQueueItem{}

	first := timeMustParse(t, "2025-03-14T09:00:00Z")
	second := timeMustParse(t, "2025-03-14T09:01:00Z")

	item.PrependError("first failure", first)
	item.PrependError("second failure", second)

	assert.Len(t, item.Errors, 2)
	assert.Equal(t, "second failure", item.Errors[0].Message, "most recent first")
	assert.Equal(t, "first failure", item.Errors[1].Message)
}
