// Package pricing selects a unit price for a product from the buyer's
// attribute selections. Each product kind gets its own strategy behind a
// uniform Price contract, dispatched by ForKind.
package pricing

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindSimple           Kind = "simple"
	KindSingleVariation  Kind = "single_variation"
	KindComplexVariation Kind = "complex_variation"
	KindBloxx            Kind = "bloxx"
)

var (
	ErrUnknownKind = errors.New("unknown product kind")
	ErrNoMatch     = errors.New("no variation matches the selections")
)

// Variation is one purchasable combination of attribute options.
type Variation struct {
	ID         int64             `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Price      float64           `json:"price"`
}

// Product carries the pricing inputs for a catalog product.
type Product struct {
	Kind       Kind        `json:"kind"`
	BasePrice  float64     `json:"base_price"`
	Variations []Variation `json:"variations"`
}

// Selections maps attribute name to the chosen option.
type Selections map[string]string

type Strategy interface {
	Price(sel Selections) (float64, error)
}

// ForKind returns the pricing strategy for a product kind.
func ForKind(p Product) (Strategy, error) {
	switch p.Kind {
	case KindSimple:
		return simpleStrategy{base: p.BasePrice}, nil
	case KindSingleVariation:
		return singleVariationStrategy{variations: p.Variations}, nil
	case KindComplexVariation:
		return complexVariationStrategy{variations: p.Variations}, nil
	case KindBloxx:
		// Bloxx products price like complex variations but tolerate a
		// missing "version" attribute on older variations.
		return bloxxStrategy{variations: p.Variations}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
}

// simpleStrategy ignores selections; the product has a single price.
type simpleStrategy struct {
	base float64
}

func (s simpleStrategy) Price(Selections) (float64, error) {
	return s.base, nil
}

// singleVariationStrategy matches on any one attribute option, since the
// product varies along a single axis.
type singleVariationStrategy struct {
	variations []Variation
}

func (s singleVariationStrategy) Price(sel Selections) (float64, error) {
	if len(sel) == 0 {
		if len(s.variations) > 0 {
			return s.variations[0].Price, nil
		}
		return 0, ErrNoMatch
	}
	for _, v := range s.variations {
		for _, option := range v.Attributes {
			if selectionHasOption(sel, option) {
				return v.Price, nil
			}
		}
	}
	return 0, ErrNoMatch
}

// complexVariationStrategy requires every attribute of a variation to be
// matched by the selections.
type complexVariationStrategy struct {
	variations []Variation
}

func (s complexVariationStrategy) Price(sel Selections) (float64, error) {
	for _, v := range s.variations {
		if matchesAll(v, sel, nil) {
			return v.Price, nil
		}
	}
	return 0, ErrNoMatch
}

type bloxxStrategy struct {
	variations []Variation
}

func (s bloxxStrategy) Price(sel Selections) (float64, error) {
	optional := map[string]bool{"version": true}
	for _, v := range s.variations {
		if matchesAll(v, sel, optional) {
			return v.Price, nil
		}
	}
	return 0, ErrNoMatch
}

func matchesAll(v Variation, sel Selections, optional map[string]bool) bool {
	if len(v.Attributes) == 0 {
		return false
	}
	for name, option := range v.Attributes {
		chosen, ok := sel[name]
		if !ok {
			if optional[name] {
				continue
			}
			return false
		}
		if chosen != option {
			return false
		}
	}
	return true
}

func selectionHasOption(sel Selections, option string) bool {
	for _, chosen := range sel {
		if chosen == option {
			return true
		}
	}
	return false
}
