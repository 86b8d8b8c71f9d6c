/*
Package factory provides JSON to engine configuration conversion.

PURPOSE:
  Converts JSON configuration into an engine.CategoryConfig and a set of
  career-level rate presets. This keeps the category-to-rate-field mapping
  and the default rates out of code - back office staff can adjust them
  without a deploy, and new commission categories can be added without
  touching the cascade algorithm.

JSON SCHEMA:
  {
    "categories": {
      "bank": "bank",
      "insurance": "insurance",
      "realEstate": "realEstate",
      "propertyManagement": "realEstate",
      "energyContracts": "none"
    },
    "career_levels": [
      {"name": "Junior Consultant", "bank_rate": 25, "insurance_rate": 20, "real_estate_rate": 15},
      {"name": "Senior Consultant", "bank_rate": 40, "insurance_rate": 35, "real_estate_rate": 30},
      {"name": "Team Lead",         "bank_rate": 60, "insurance_rate": 50, "real_estate_rate": 45}
    ]
  }

ENERGY CONTRACTS:
  The default maps energyContracts to "none" (no owner-payable provision),
  matching the cascade view of the original system. Legacy imports mapped
  it to the bank rate field instead; that interpretation is expressed by
  setting "energyContracts": "bank" here. The two readings are NOT
  equivalent - keep whichever the data was billed under.

USAGE:
  cfg, levels, err := factory.ParseConfig(jsonString)
  calc := engine.NewCalculator(cfg)

SEE ALSO:
  - engine/category.go: CategoryConfig semantics
  - engine/hierarchy.go: CareerLevel on nodes
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/provision-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of the engine configuration.
type ConfigJSON struct {
	Categories   map[string]string `json:"categories"`
	CareerLevels []CareerLevelJSON `json:"career_levels,omitempty"`
}

// CareerLevelJSON is a named rank with its default provision rates.
type CareerLevelJSON struct {
	Name           string  `json:"name"`
	BankRate       float64 `json:"bank_rate"`
	InsuranceRate  float64 `json:"insurance_rate"`
	RealEstateRate float64 `json:"real_estate_rate"`
}

// CareerLevel is the parsed preset applied to hierarchy nodes.
type CareerLevel struct {
	Name           string
	BankRate       engine.Percent
	InsuranceRate  engine.Percent
	RealEstateRate engine.Percent
}

// Apply stamps the level's default rates onto a node.
func (cl CareerLevel) Apply(n *engine.HierarchyNode) {
	n.CareerLevel = cl.Name
	n.BankRate = cl.BankRate
	n.InsuranceRate = cl.InsuranceRate
	n.RealEstateRate = cl.RealEstateRate
}

// =============================================================================
// PARSING
// =============================================================================

var validRateFields = map[string]engine.RateField{
	"bank":       engine.RateFieldBank,
	"insurance":  engine.RateFieldInsurance,
	"realEstate": engine.RateFieldRealEstate,
	"none":       engine.RateFieldNone,
}

// ParseConfig converts a JSON document into a CategoryConfig and the
// career-level presets. An empty "categories" object yields the default
// mapping; unknown rate field names are rejected.
func ParseConfig(jsonStr string) (engine.CategoryConfig, []CareerLevel, error) {
	var cfg ConfigJSON
	if err := json.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return engine.CategoryConfig{}, nil, fmt.Errorf("invalid config JSON: %w", err)
	}

	config := engine.DefaultCategoryConfig()
	for cat, field := range cfg.Categories {
		rf, ok := validRateFields[field]
		if !ok {
			return engine.CategoryConfig{}, nil, fmt.Errorf("category %q: unknown rate field %q", cat, field)
		}
		config = config.WithMapping(engine.CategoryType(cat), rf)
	}

	levels := make([]CareerLevel, 0, len(cfg.CareerLevels))
	for _, lj := range cfg.CareerLevels {
		level := CareerLevel{
			Name:           lj.Name,
			BankRate:       engine.NewPercent(lj.BankRate),
			InsuranceRate:  engine.NewPercent(lj.InsuranceRate),
			RealEstateRate: engine.NewPercent(lj.RealEstateRate),
		}
		for _, check := range []engine.Percent{level.BankRate, level.InsuranceRate, level.RealEstateRate} {
			if !check.InRange() {
				return engine.CategoryConfig{}, nil, fmt.Errorf("career level %q: %w", lj.Name, engine.ErrInvalidRate)
			}
		}
		levels = append(levels, level)
	}

	return config, levels, nil
}

// DefaultConfigJSON is a ready-to-edit configuration document with the
// standard mapping and a small career ladder.
const DefaultConfigJSON = `{
  "categories": {
    "bank": "bank",
    "insurance": "insurance",
    "realEstate": "realEstate",
    "propertyManagement": "realEstate",
    "energyContracts": "none"
  },
  "career_levels": [
    {"name": "Junior Consultant", "bank_rate": 25, "insurance_rate": 20, "real_estate_rate": 15},
    {"name": "Senior Consultant", "bank_rate": 40, "insurance_rate": 35, "real_estate_rate": 30},
    {"name": "Team Lead",         "bank_rate": 60, "insurance_rate": 50, "real_estate_rate": 45},
    {"name": "Division Manager",  "bank_rate": 75, "insurance_rate": 65, "real_estate_rate": 60}
  ]
}`
