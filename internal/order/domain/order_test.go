package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkPaidOneWay(t *testing.T) {
	order := &Order{ID: "o1"}

	assert.True(t, order.MarkPaid())
	assert.True(t, order.Payment)
	assert.Equal(t, StatusProcessing, order.Status)

	// 重复标记无副作用
	assert.False(t, order.MarkPaid())
	assert.True(t, order.Payment)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus("Order Placed"))
	assert.False(t, ValidStatus(""))
}
