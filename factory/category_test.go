package factory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/provision-engine/engine"
	"github.com/warp/provision-engine/factory"
)

func TestParseConfig_DefaultDocument(t *testing.T) {
	config, levels, err := factory.ParseConfig(factory.DefaultConfigJSON)
	require.NoError(t, err)

	assert.Equal(t, engine.RateFieldBank, config.RateFieldFor(engine.CategoryBank))
	assert.Equal(t, engine.RateFieldRealEstate, config.RateFieldFor(engine.CategoryPropertyManagement))
	assert.Equal(t, engine.RateFieldNone, config.RateFieldFor(engine.CategoryEnergyContracts))

	require.Len(t, levels, 4)
	assert.Equal(t, "Junior Consultant", levels[0].Name)
	assert.True(t, levels[0].BankRate.Equal(engine.NewPercent(25)))
}

func TestParseConfig_EnergyContractsRemap(t *testing.T) {
	// The legacy-import reading: energyContracts pays from the bank rate.
	config, _, err := factory.ParseConfig(`{"categories": {"energyContracts": "bank"}}`)
	require.NoError(t, err)

	assert.Equal(t, engine.RateFieldBank, config.RateFieldFor(engine.CategoryEnergyContracts))
	// Unmentioned categories keep their defaults.
	assert.Equal(t, engine.RateFieldInsurance, config.RateFieldFor(engine.CategoryInsurance))
}

func TestParseConfig_UnknownRateField_Rejected(t *testing.T) {
	_, _, err := factory.ParseConfig(`{"categories": {"bank": "crypto"}}`)
	assert.Error(t, err)
}

func TestParseConfig_MalformedJSON_Rejected(t *testing.T) {
	_, _, err := factory.ParseConfig(`{"categories": `)
	assert.Error(t, err)
}

func TestParseConfig_CareerLevelRateOutOfRange_Rejected(t *testing.T) {
	_, _, err := factory.ParseConfig(`{
		"categories": {},
		"career_levels": [{"name": "Broken", "bank_rate": 140, "insurance_rate": 0, "real_estate_rate": 0}]
	}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidRate))
}

func TestCareerLevel_ApplyStampsRates(t *testing.T) {
	_, levels, err := factory.ParseConfig(factory.DefaultConfigJSON)
	require.NoError(t, err)

	parent := engine.NodeID("company")
	n := &engine.HierarchyNode{ID: "emp", Name: "Emp", ParentID: &parent, Type: engine.NodePerson}
	levels[1].Apply(n)

	assert.Equal(t, "Senior Consultant", n.CareerLevel)
	assert.True(t, n.BankRate.Equal(engine.NewPercent(40)))
	assert.True(t, n.InsuranceRate.Equal(engine.NewPercent(35)))
	assert.True(t, n.RealEstateRate.Equal(engine.NewPercent(30)))
}
