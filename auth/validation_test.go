package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/telegate/telegate/auth"
)

func TestNormalizePhoneNumber(t *testing.T) {
	t.Run("valid international number", func(t *testing.T) {
		phone, err := auth.NormalizePhoneNumber("+15551234567")
		require.NoError(t, err)
		require.Equal(t, "+15551234567", phone)
	})

	t.Run("embedded whitespace is stripped", func(t *testing.T) {
		phone, err := auth.NormalizePhoneNumber("  +1 555 123 4567 ")
		require.NoError(t, err)
		require.Equal(t, "+15551234567", phone)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := auth.NormalizePhoneNumber("   ")
		require.ErrorIs(t, err, auth.PhoneRequiredErr)
	})

	t.Run("missing plus prefix", func(t *testing.T) {
		_, err := auth.NormalizePhoneNumber("15551234567")
		require.ErrorIs(t, err, auth.InvalidPhoneErr)
	})

	t.Run("letters", func(t *testing.T) {
		_, err := auth.NormalizePhoneNumber("+1555CALLNOW")
		require.ErrorIs(t, err, auth.InvalidPhoneErr)
	})

	t.Run("dashes", func(t *testing.T) {
		_, err := auth.NormalizePhoneNumber("+1-555-123-4567")
		require.ErrorIs(t, err, auth.InvalidPhoneErr)
	})
}

func TestNormalizeCode(t *testing.T) {
	t.Run("digits pass through", func(t *testing.T) {
		code, err := auth.NormalizeCode(" 24680 ")
		require.NoError(t, err)
		require.Equal(t, "24680", code)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := auth.NormalizeCode("  ")
		require.ErrorIs(t, err, auth.MissingVerifyFieldsErr)
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, err := auth.NormalizeCode("24a80")
		require.ErrorIs(t, err, auth.NonNumericCodeErr)
	})
}
