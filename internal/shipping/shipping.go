// Package shipping computes delivery cost for a priced basket.
package shipping

import "neynegar/internal/domain"

// Fallback is the linear formula applied when no rule covers a method.
// Both constants come from configuration so call sites stay overridable.
type Fallback struct {
	PerGram float64
	Base    float64
}

// Resolve returns the shipping cost for totalWeight grams.
//
// With a rule: flatCost + costPerKg * weight/1000.
// Without one: fb.Base + fb.PerGram * weight.
func Resolve(rule *domain.ShippingRule, totalWeightGrams float64, fb Fallback) float64 {
	if rule != nil {
		return rule.FlatCost + rule.CostPerKg*totalWeightGrams/1000
	}
	return totalWeightGrams*fb.PerGram + fb.Base
}
