/*
category.go - Injectable category-to-rate-field mapping

PURPOSE:
  The cascade never hard-codes which rate field a commission category
  reads. The mapping is supplied as a CategoryConfig so new categories can
  be added - or an existing one re-mapped - without touching the
  algorithm.

DEFAULT MAPPING:
  bank               -> bank rate
  insurance          -> insurance rate
  realEstate         -> real estate rate
  propertyManagement -> real estate rate
  energyContracts    -> none (no owner-payable provision)

KNOWN DISCREPANCY:
  energyContracts has no dedicated rate field. The cascade view of the
  original system treats it as "no owner provision" (the default here);
  the legacy import script instead mapped it to the bank rate field. Both
  interpretations are expressible: override the mapping via
  WithMapping(CategoryEnergyContracts, RateFieldBank) or through the JSON
  config in the factory package. Do not unify silently.

SEE ALSO:
  - cascade.go: Resolves every rate through this config
  - factory/category.go: JSON source for the mapping
*/
package engine

// =============================================================================
// CATEGORY CONFIG
// =============================================================================

// CategoryConfig maps commission categories to the hierarchy rate field
// that pays them. Immutable once built; WithMapping returns a copy.
type CategoryConfig struct {
	mapping map[CategoryType]RateField
}

// DefaultCategoryConfig returns the standard mapping (see file header).
func DefaultCategoryConfig() CategoryConfig {
	return NewCategoryConfig(map[CategoryType]RateField{
		CategoryBank:               RateFieldBank,
		CategoryInsurance:          RateFieldInsurance,
		CategoryRealEstate:         RateFieldRealEstate,
		CategoryPropertyManagement: RateFieldRealEstate,
		CategoryEnergyContracts:    RateFieldNone,
	})
}

// NewCategoryConfig builds a config from an explicit mapping. Unknown
// categories resolve to RateFieldNone at lookup time.
func NewCategoryConfig(mapping map[CategoryType]RateField) CategoryConfig {
	m := make(map[CategoryType]RateField, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return CategoryConfig{mapping: m}
}

// RateFieldFor returns the rate field that pays the given category.
// Categories without a mapping carry no owner-payable provision.
func (c CategoryConfig) RateFieldFor(cat CategoryType) RateField {
	if f, ok := c.mapping[cat]; ok {
		return f
	}
	return RateFieldNone
}

// WithMapping returns a copy of the config with one category re-mapped.
func (c CategoryConfig) WithMapping(cat CategoryType, field RateField) CategoryConfig {
	m := make(map[CategoryType]RateField, len(c.mapping)+1)
	for k, v := range c.mapping {
		m[k] = v
	}
	m[cat] = field
	return CategoryConfig{mapping: m}
}

// Categories returns every mapped category. Order is unspecified.
func (c CategoryConfig) Categories() []CategoryType {
	out := make([]CategoryType, 0, len(c.mapping))
	for k := range c.mapping {
		out = append(out, k)
	}
	return out
}
