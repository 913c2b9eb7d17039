package shipping

import (
	"fmt"
	"regexp"
)

type Method string

const (
	MethodFlatRate     Method = "flat_rate"
	MethodFreeShipping Method = "free_shipping"
	MethodLocalPickup  Method = "local_pickup"
)

// FlatRate is one tier of the subtotal-based flat-rate table.
type FlatRate struct {
	SubtotalThreshold float64 `json:"subtotal_threshold"`
	ShippingCost      float64 `json:"shipping_cost"`
}

// Config is the shipping setup fetched from the commerce backend.
type Config struct {
	FlatRates            []FlatRate `json:"flat_rates"`
	LocalPickupZips      []string   `json:"local_pickup_zipcodes"`
	FreeShippingForLocal bool       `json:"is_free_shipping_for_local_pickup"`
}

// Quote is a single offered shipping method with its cost.
type Quote struct {
	Method Method  `json:"method"`
	Label  string  `json:"label"`
	Cost   float64 `json:"cost"`
}

// Resolution is the outcome of resolving shipping for a postal code and
// subtotal: the methods on offer and the default selection.
type Resolution struct {
	Options  []Quote `json:"options"`
	Selected Quote   `json:"selected"`
}

func (r Resolution) Has(m Method) (Quote, bool) {
	for _, q := range r.Options {
		if q.Method == m {
			return q, true
		}
	}
	return Quote{}, false
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Resolve computes the available shipping methods for a postal code and
// subtotal. An invalid postal code yields no options at all, so a method
// can never be selected against a half-typed address. Must be re-run on
// every postal code or subtotal change.
func Resolve(postcode string, subtotal float64, cfg Config) Resolution {
	if !zipPattern.MatchString(postcode) {
		return Resolution{}
	}

	if containsZip(cfg.LocalPickupZips, postcode) {
		options := []Quote{{Method: MethodLocalPickup, Label: "Local Pickup - $0.00", Cost: 0}}
		if cfg.FreeShippingForLocal {
			options = append(options, Quote{Method: MethodFreeShipping, Label: "Free Shipping - $0.00", Cost: 0})
		}
		res := Resolution{Options: options}
		res.Selected = defaultSelection(res)
		return res
	}

	cost := FlatRateCost(subtotal, cfg)
	quote := Quote{
		Method: MethodFlatRate,
		Label:  fmt.Sprintf("Flat Rate - $%.2f", cost),
		Cost:   cost,
	}
	return Resolution{Options: []Quote{quote}, Selected: quote}
}

// FlatRateCost picks the tier with the highest subtotal threshold the cart
// has met. When no tier is met it falls back to the first configured tier.
func FlatRateCost(subtotal float64, cfg Config) float64 {
	if len(cfg.FlatRates) == 0 {
		return 0
	}

	best := -1
	for i, rate := range cfg.FlatRates {
		if subtotal < rate.SubtotalThreshold {
			continue
		}
		if best < 0 || rate.SubtotalThreshold > cfg.FlatRates[best].SubtotalThreshold {
			best = i
		}
	}
	if best < 0 {
		return cfg.FlatRates[0].ShippingCost
	}
	return cfg.FlatRates[best].ShippingCost
}

// Reselect keeps a previously chosen method if it is still offered,
// otherwise falls back to the default priority. The returned bool reports
// whether the previous choice survived.
func Reselect(prev Method, res Resolution) (Quote, bool) {
	if q, ok := res.Has(prev); ok {
		return q, true
	}
	return defaultSelection(res), false
}

// Default selection priority: Free Shipping > Local Pickup > Flat Rate.
func defaultSelection(res Resolution) Quote {
	for _, m := range []Method{MethodFreeShipping, MethodLocalPickup, MethodFlatRate} {
		if q, ok := res.Has(m); ok {
			return q
		}
	}
	return Quote{}
}

func containsZip(zips []string, zip string) bool {
	for _, z := range zips {
		if z == zip {
			return true
		}
	}
	return false
}
