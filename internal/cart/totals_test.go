package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guest-portal/internal/models"
)

func TestTotals_EmptyCart(t *testing.T) {
	assert.True(t, TotalAmount(models.Cart{}).IsZero())
	assert.Equal(t, 0, TotalGuests(models.Cart{}))
	assert.Empty(t, PaymentItems(models.Cart{}))
}

func TestPaymentItems(t *testing.T) {
	c := AddItem(models.Cart{}, testUpsell(7, "25.50"), 2, testDate(15), "fish", "window seat")
	c = AddItem(c, testUpsell(8, "10"), 1, nil, "", "")

	items := PaymentItems(c)
	require.Len(t, items, 2)

	assert.Equal(t, 7, items[0].UpsellID)
	assert.Equal(t, 2, items[0].GuestCount)
	assertDecimal(t, "51", items[0].TotalPrice)
	require.NotNil(t, items[0].SelectedDate)
	assert.Equal(t, "2030-06-15T00:00:00Z", *items[0].SelectedDate)
	assert.Equal(t, "fish", items[0].MenuOptions)
	assert.Equal(t, "window seat", items[0].SpecialNotes)

	assert.Nil(t, items[1].SelectedDate)
}

func TestNewPaymentRequest_WireFormat(t *testing.T) {
	c := AddItem(models.Cart{}, testUpsell(3, "40"), 2, testDate(1), "", "")

	body, err := json.Marshal(NewPaymentRequest("tok-123", c))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "tok-123", decoded["access_token"])

	items, ok := decoded["cart_items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]any)
	assert.Equal(t, float64(3), item["upsell_id"])
	assert.Equal(t, float64(2), item["guest_count"])
	assert.Equal(t, float64(80), item["total_price"])
	assert.Equal(t, "2030-06-01T00:00:00Z", item["selected_date"])
}
