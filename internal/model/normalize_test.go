package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/emtab/internal/diag"
)

func fp(v float64) *float64 { return &v }

func TestNormalizeDefaultsCommodityKindAndUnit(t *testing.T) {
	m := &Model{Commodities: []Commodity{
		{Name: "elc"},
		{Name: "co2", Kind: KindEmission},
		{Name: "heat", Kind: KindDemand, Unit: "GWh"},
	}}

	out, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	assert.Equal(t, KindEnergy, out.Commodities[0].Kind)
	assert.Equal(t, "PJ", out.Commodities[0].Unit)
	assert.Equal(t, "Mt", out.Commodities[1].Unit)
	// Explicit unit always wins over the kind default.
	assert.Equal(t, "GWh", out.Commodities[2].Unit)
}

func TestNormalizeExpandsSingleFlowShorthand(t *testing.T) {
	m := &Model{
		Commodities: []Commodity{{Name: "ng"}, {Name: "elc"}},
		Processes:   []Process{{Name: "pwr", Input: "ng", Output: "elc"}},
	}

	out, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	p := out.Processes[0]
	assert.Empty(t, p.Input)
	assert.Empty(t, p.Output)
	require.Len(t, p.Inputs, 1)
	require.Len(t, p.Outputs, 1)
	assert.Equal(t, Flow{Commodity: "ng", Share: fp(1.0)}, p.Inputs[0])
	assert.Equal(t, Flow{Commodity: "elc", Share: fp(1.0)}, p.Outputs[0])
}

func TestNormalizeDefaultsFlowShares(t *testing.T) {
	m := &Model{
		Commodities: []Commodity{{Name: "elc"}, {Name: "heat", Kind: KindDemand}},
		Processes: []Process{{
			Name:    "chp",
			Outputs: []Flow{{Commodity: "elc"}, {Commodity: "heat", Share: fp(0.4)}},
		}},
	}

	out, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	assert.Equal(t, fp(1.0), out.Processes[0].Outputs[0].Share)
	assert.Equal(t, fp(0.4), out.Processes[0].Outputs[1].Share)
}

func TestNormalizeKeepsExplicitZeroShare(t *testing.T) {
	m := &Model{
		Commodities: []Commodity{{Name: "co2", Kind: KindEmission}},
		Processes: []Process{{
			Name:    "scrubber",
			Outputs: []Flow{{Commodity: "co2", Share: fp(0)}},
		}},
	}

	out, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	// An explicit zero is a declared value, not an omission.
	require.NotNil(t, out.Processes[0].Outputs[0].Share)
	assert.Equal(t, 0.0, *out.Processes[0].Outputs[0].Share)
}

func TestNormalizeUnknownFlowCommodity(t *testing.T) {
	m := &Model{
		Processes: []Process{{Name: "pwr", Output: "elc"}},
	}

	_, diags := Normalize(m)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeReference, diags[0].Code)
	assert.Equal(t, "pwr", diags[0].Entity)
	assert.Contains(t, diags[0].Message, "elc")
}

func TestNormalizeUnknownScenarioCommodity(t *testing.T) {
	m := &Model{
		Scenarios: []Scenario{{Name: "base", Kind: ScenarioDemandProjection, Commodity: "heat"}},
	}

	_, diags := Normalize(m)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeReference, diags[0].Code)
	assert.Equal(t, "base", diags[0].Entity)
}

func TestNormalizeUnknownConstraintProcess(t *testing.T) {
	m := &Model{
		Constraints: []Constraint{{
			Name:      "re_share",
			Kind:      ConstraintActivityShare,
			Processes: []string{"wind", "solar"},
		}},
	}

	_, diags := Normalize(m)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, diag.CodeReference, d.Code)
		assert.Equal(t, "re_share", d.Entity)
	}
}

func TestNormalizeUnknownTradeLinkRegion(t *testing.T) {
	m := &Model{
		Regions:     []string{"north"},
		Commodities: []Commodity{{Name: "elc"}},
		TradeLinks:  []TradeLink{{Origin: "north", Destination: "south", Commodity: "elc"}},
	}

	_, diags := Normalize(m)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeReference, diags[0].Code)
	assert.Contains(t, diags[0].Message, "south")
}

func TestNormalizeDefaultsTradeEfficiency(t *testing.T) {
	m := &Model{
		Regions:     []string{"north", "south"},
		Commodities: []Commodity{{Name: "elc"}},
		TradeLinks: []TradeLink{
			{Origin: "north", Destination: "south", Commodity: "elc"},
			{Origin: "south", Destination: "north", Commodity: "elc", Efficiency: 0.92},
		},
	}

	out, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	assert.Equal(t, 1.0, out.TradeLinks[0].Efficiency)
	assert.Equal(t, 0.92, out.TradeLinks[1].Efficiency)
}

func TestNormalizeDuplicateNames(t *testing.T) {
	m := &Model{
		Regions:     []string{"north", "north"},
		Commodities: []Commodity{{Name: "elc"}, {Name: "elc"}},
	}

	_, diags := Normalize(m)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, diag.CodeDuplicateName, d.Code)
	}
}

func TestNormalizeDuplicatesAcrossKindsAllowed(t *testing.T) {
	// A process and a commodity may share a name; only entities of the same
	// kind collide.
	m := &Model{
		Commodities: []Commodity{{Name: "elc"}},
		Processes:   []Process{{Name: "elc", Output: "elc"}},
	}

	_, diags := Normalize(m)
	assert.Empty(t, diags)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	m := &Model{
		Commodities: []Commodity{{Name: "elc"}},
		Processes:   []Process{{Name: "pwr", Output: "elc"}},
	}

	_, diags := Normalize(m)
	require.False(t, diag.HasFatal(diags))

	assert.Empty(t, m.Commodities[0].Unit)
	assert.Equal(t, "elc", m.Processes[0].Output)
	assert.Empty(t, m.Processes[0].Outputs)
}

func TestNormalizeCollectsAllDiagnostics(t *testing.T) {
	m := &Model{
		Regions: []string{"north", "north"},
		Processes: []Process{
			{Name: "pwr", Output: "elc"},
			{Name: "pwr", Input: "ng"},
		},
	}

	_, diags := Normalize(m)
	// One duplicate region, one duplicate process, two unknown commodities.
	assert.Len(t, diags, 4)
}
