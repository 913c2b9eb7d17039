package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		FlatRates: []FlatRate{
			{SubtotalThreshold: 0, ShippingCost: 10},
			{SubtotalThreshold: 100, ShippingCost: 20},
			{SubtotalThreshold: 250, ShippingCost: 35},
		},
		LocalPickupZips:      []string{"30501", "30507", "30503"},
		FreeShippingForLocal: true,
	}
}

func TestResolve_InvalidZipNoOptions(t *testing.T) {
	for _, zip := range []string{"", "3050", "305011", "3o501", "30 01"} {
		res := Resolve(zip, 120, testConfig())
		assert.Empty(t, res.Options, "zip %q should offer nothing", zip)
		assert.Empty(t, res.Selected.Method)
	}
}

func TestResolve_FlatRateHighestTierMet(t *testing.T) {
	// Subtotal 120 meets tiers 0 and 100; tier 100 is the highest met.
	res := Resolve("99999", 120, testConfig())

	require.Len(t, res.Options, 1)
	assert.Equal(t, MethodFlatRate, res.Selected.Method)
	assert.InDelta(t, 20.00, res.Selected.Cost, 0.001)
	assert.Equal(t, "Flat Rate - $20.00", res.Selected.Label)
}

func TestResolve_FlatRateTopTier(t *testing.T) {
	res := Resolve("99999", 300, testConfig())
	assert.InDelta(t, 35.00, res.Selected.Cost, 0.001)
}

func TestResolve_FlatRateBottomTier(t *testing.T) {
	res := Resolve("99999", 50, testConfig())
	assert.InDelta(t, 10.00, res.Selected.Cost, 0.001)
}

func TestFlatRateCost_FallbackToFirstTier(t *testing.T) {
	cfg := Config{FlatRates: []FlatRate{
		{SubtotalThreshold: 100, ShippingCost: 20},
		{SubtotalThreshold: 250, ShippingCost: 35},
	}}

	// Subtotal below every threshold falls back to the first tier.
	assert.InDelta(t, 20.00, FlatRateCost(50, cfg), 0.001)
}

func TestFlatRateCost_UnorderedTiers(t *testing.T) {
	cfg := Config{FlatRates: []FlatRate{
		{SubtotalThreshold: 250, ShippingCost: 35},
		{SubtotalThreshold: 0, ShippingCost: 10},
		{SubtotalThreshold: 100, ShippingCost: 20},
	}}

	assert.InDelta(t, 20.00, FlatRateCost(120, cfg), 0.001)
}

func TestResolve_LocalPickupWithFreeShipping(t *testing.T) {
	res := Resolve("30501", 120, testConfig())

	require.Len(t, res.Options, 2)
	_, hasPickup := res.Has(MethodLocalPickup)
	_, hasFree := res.Has(MethodFreeShipping)
	assert.True(t, hasPickup)
	assert.True(t, hasFree)

	// Free Shipping wins the default selection.
	assert.Equal(t, MethodFreeShipping, res.Selected.Method)
	assert.Zero(t, res.Selected.Cost)
}

func TestResolve_LocalPickupOnly(t *testing.T) {
	cfg := testConfig()
	cfg.FreeShippingForLocal = false

	res := Resolve("30501", 120, cfg)

	require.Len(t, res.Options, 1)
	assert.Equal(t, MethodLocalPickup, res.Selected.Method)
	assert.Zero(t, res.Selected.Cost)
}

func TestReselect_KeepsAvailableChoice(t *testing.T) {
	res := Resolve("30501", 120, testConfig())

	q, kept := Reselect(MethodLocalPickup, res)
	assert.True(t, kept)
	assert.Equal(t, MethodLocalPickup, q.Method)
}

func TestReselect_DropsUnavailableChoice(t *testing.T) {
	// User had free shipping from a local-pickup zip, then changed to a
	// non-local address: only flat rate remains.
	res := Resolve("99999", 120, testConfig())

	q, kept := Reselect(MethodFreeShipping, res)
	assert.False(t, kept)
	assert.Equal(t, MethodFlatRate, q.Method)
	assert.InDelta(t, 20.00, q.Cost, 0.001)
}
