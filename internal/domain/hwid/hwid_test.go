package hwid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUUID(t *testing.T) {
	id, err := Parse("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	assert.Equal(t, KindUUID, id.Kind())
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", id.String())
}

func TestParseNumericMAC(t *testing.T) {
	for _, raw := range []string{"1234567890", "123456789012345"} {
		id, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, KindNumericMAC, id.Kind())
		assert.Equal(t, raw, id.String())
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{
		"",
		"not-a-hwid",
		"123456789",                            // 9 digits, too short
		"1234567890123456",                     // 16 digits, too long
		"12345678901234a",                      // non-digit
		"urn:uuid:11111111-1111-1111-1111-111111111111", // non-canonical UUID form
		"{11111111-1111-1111-1111-111111111111}",
		"11111111111111111111111111111111", // unhyphenated hex
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidFormat, raw)
	}
}
