package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/emtab/internal/model"
	"github.com/mkarlsen/emtab/internal/series"
)

func TestLoadModelDemo(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, []string{"north", "south"}, m.Regions)
	assert.Equal(t, []int{2020, 2030}, m.Years())
	require.Len(t, m.Commodities, 4)
	require.Len(t, m.Processes, 2)

	assert.Equal(t, model.KindDemand, m.Commodities[2].Kind)
}

func TestLoadModelScalarAttribute(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	eff := m.Processes[0].Efficiency
	require.NotNil(t, eff)
	require.NotNil(t, eff.Scalar)
	assert.Equal(t, 0.55, *eff.Scalar)
	assert.False(t, eff.TimeVarying())
}

func TestLoadModelTimeVaryingAttribute(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	inv := m.Processes[0].InvCost
	require.NotNil(t, inv)
	assert.True(t, inv.TimeVarying())
	assert.Equal(t, series.PolicyLinear, inv.Policy)
	assert.Equal(t, series.Series{{Year: 2020, Value: 900}, {Year: 2030, Value: 700}}, inv.Values)
}

func TestLoadModelBounds(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	require.Len(t, m.Processes[0].Bounds, 1)
	assert.Equal(t, model.Bound{
		Kind:  model.BoundActivity,
		Limit: model.LimitUpper,
		Value: 400,
	}, m.Processes[0].Bounds[0])
}

func TestLoadModelSingleLimitConstraintHolds(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	require.Len(t, m.Constraints, 1)
	c := m.Constraints[0]
	assert.Equal(t, model.ConstraintEmissionCap, c.Kind)
	// A bare limit becomes one sparse point at the start year held constant.
	assert.Equal(t, series.Series{{Year: 2020, Value: 50}}, c.Years)
	assert.Equal(t, series.PolicyHold, c.Policy)
}

func TestLoadModelTradeLinkDefaultsBidirectional(t *testing.T) {
	m, err := LoadModel("testdata/demo.yaml")
	require.NoError(t, err)

	require.Len(t, m.TradeLinks, 1)
	assert.True(t, m.TradeLinks[0].Bidirectional)
	assert.Equal(t, 0.96, m.TradeLinks[0].Efficiency)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestLoadModelRejectsUnknownInterpolation(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  scenarios:
    - name: s
      type: demand_projection
      interpolation: cubic
      values:
        2020: 1
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cubic")
}

func TestLoadModelRejectsEmptyTimeVaryingValues(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  processes:
    - name: p
      efficiency:
        interpolation: linear
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "values")
}

func TestLoadModelRejectsUnknownCommodityType(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  commodities:
    - name: elc
      type: energyy
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "energyy")
}

func TestLoadModelRejectsUnknownScenarioType(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  scenarios:
    - name: base
      type: projection
      values:
        2020: 1
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projection")
}

func TestLoadModelRejectsUnknownConstraintType(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  constraints:
    - name: cap
      type: emissions_cap
      limit: 50
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emissions_cap")
}

func TestLoadModelRejectsUnknownLimtype(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: bad
  constraints:
    - name: cap
      type: emission_cap
      limtype: fixedd
      limit: 50
`)

	_, err := LoadModel(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixedd")
}

func TestLoadModelPreservesExplicitZeroShare(t *testing.T) {
	path := writeTempYAML(t, `
model:
  name: zero
  commodities:
    - name: co2
      type: emission
  processes:
    - name: scrubber
      outputs:
        - commodity: co2
          share: 0
`)

	m, err := LoadModel(path)
	require.NoError(t, err)

	require.Len(t, m.Processes[0].Outputs, 1)
	require.NotNil(t, m.Processes[0].Outputs[0].Share)
	assert.Equal(t, 0.0, *m.Processes[0].Outputs[0].Share)
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
