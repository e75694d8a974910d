package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysync/backend/internal/storage/models"
)

func TestDecodeDate(t *testing.T) {
	d, err := DecodeDate("20251115")
	require.NoError(t, err)
	assert.Equal(t, models.Date{Year: 2025, Month: 11, Day: 15}, d)
	assert.Equal(t, "2025-11-15", d.String())
	assert.Equal(t, "20251115", d.Compact())
}

func TestDecodeDateRejectsBadTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"too short", "2025111"},
		{"too long", "202511150"},
		{"empty", ""},
		{"non-digit", "2025111a"},
		{"datetime value", "20251115T140000Z"},
		{"month zero", "20250015"},
		{"month thirteen", "20251315"},
		{"day zero", "20251100"},
		{"day thirty-two", "20251132"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDate(tc.token)
			require.Error(t, err)

			var malformed *MalformedDateError
			assert.ErrorAs(t, err, &malformed)
			assert.Equal(t, tc.token, malformed.Token)
		})
	}
}

func TestDecodeDateSkipsPerMonthValidation(t *testing.T) {
	// February 30 is impossible but the codec accepts any day 1-31.
	d, err := DecodeDate("20250230")
	require.NoError(t, err)
	assert.Equal(t, models.Date{Year: 2025, Month: 2, Day: 30}, d)
}

func TestDateBefore(t *testing.T) {
	assert.True(t, models.Date{Year: 2025, Month: 11, Day: 15}.Before(models.Date{Year: 2025, Month: 11, Day: 18}))
	assert.True(t, models.Date{Year: 2025, Month: 11, Day: 30}.Before(models.Date{Year: 2025, Month: 12, Day: 1}))
	assert.True(t, models.Date{Year: 2025, Month: 12, Day: 31}.Before(models.Date{Year: 2026, Month: 1, Day: 1}))
	assert.False(t, models.Date{Year: 2025, Month: 11, Day: 15}.Before(models.Date{Year: 2025, Month: 11, Day: 15}))
	assert.False(t, models.Date{Year: 2025, Month: 11, Day: 18}.Before(models.Date{Year: 2025, Month: 11, Day: 15}))
}
