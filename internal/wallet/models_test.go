package wallet

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func th(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestApply_BalanceIdentity(t *testing.T) {
	now := time.Now().UTC()
	w := Wallet{ID: "w1"}

	deltas := []Delta{
		CreditDelta(d("10"), d("1.10")),
		CreditDelta(d("4.25"), d("0.50")),
		DebitDelta(d("3")),
		CreditDelta(d("0.75"), d("0")),
		DebitDelta(d("1.5")),
	}

	for _, dl := range deltas {
		w = w.Apply(dl, decimal.NullDecimal{}, now)
		require.True(t, w.CurrentBalance.Equal(w.TotalAccumulated.Sub(w.TotalRedeemed)),
			"balance %s != accumulated %s - redeemed %s", w.CurrentBalance, w.TotalAccumulated, w.TotalRedeemed)
	}

	assert.True(t, w.TotalAccumulated.Equal(d("15")))
	assert.True(t, w.TotalRedeemed.Equal(d("4.5")))
	assert.True(t, w.CurrentBalance.Equal(d("10.5")))
}

func TestApply_CertifiedAssetRecomputedWhileConfigured(t *testing.T) {
	now := time.Now().UTC()
	w := Wallet{ID: "w1"}

	w = w.Apply(CreditDelta(d("10"), d("60")), th("100"), now)
	assert.False(t, w.CertifiedAsset)

	w = w.Apply(CreditDelta(d("10"), d("45")), th("100"), now)
	assert.True(t, w.CertifiedAsset, "105 spent crosses the 100 threshold")

	// A correction that drops lifetime spend below the threshold clears the
	// flag again while a positive threshold is configured.
	w = w.Apply(Delta{Spent: d("-20")}, th("100"), now)
	assert.False(t, w.CertifiedAsset)
}

func TestApply_CertifiedAssetFrozenWhenDisabled(t *testing.T) {
	now := time.Now().UTC()
	w := Wallet{ID: "w1"}

	w = w.Apply(CreditDelta(d("10"), d("150")), th("100"), now)
	require.True(t, w.CertifiedAsset)

	// Disabling certification must not strip already-certified wallets.
	w = w.Apply(CreditDelta(d("1"), d("1")), decimal.NullDecimal{}, now)
	assert.True(t, w.CertifiedAsset)

	w = w.Apply(CreditDelta(d("1"), d("1")), th("0"), now)
	assert.True(t, w.CertifiedAsset)
}

func TestApply_ReversalRestoresTotals(t *testing.T) {
	now := time.Now().UTC()
	w := Wallet{ID: "w1"}

	w = w.Apply(CreditDelta(d("7.5"), d("3.2500")), decimal.NullDecimal{}, now)
	w = w.Apply(ReversalDelta(d("7.5"), d("3.2500")), decimal.NullDecimal{}, now)

	assert.True(t, w.TotalAccumulated.IsZero())
	assert.True(t, w.TotalAmountSpent.IsZero())
	assert.True(t, w.CurrentBalance.IsZero())
}

func TestHolder_ValidateAndRef(t *testing.T) {
	require.NoError(t, UserHolder("u1").Validate())
	require.NoError(t, MerchantHolder("m1").Validate())

	assert.ErrorIs(t, Holder{}.Validate(), ErrInvalidHolder)
	assert.ErrorIs(t, Holder{UserID: "u", MerchantID: "m"}.Validate(), ErrInvalidHolder)

	assert.Equal(t, "user:u1", UserHolder("u1").Ref())
	assert.Equal(t, "merchant:m1", MerchantHolder("m1").Ref())
}
