package lower

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
)

// TestLowerGolden pins the full canonical serialization of a small compiled
// model. Any change to table order, column naming, or number formatting shows
// up as a golden diff.
//
// To regenerate, run:
//
//	go test ./internal/lower -update
func TestLowerGolden(t *testing.T) {
	m := &model.Model{
		Name:      "demo",
		Regions:   []string{"north"},
		StartYear: 2020,
		Periods:   []int{10, 10},
		Commodities: []model.Commodity{
			{Name: "elc"},
		},
		Processes: []model.Process{
			{Name: "pwr", Sets: []string{"ELE"}, Output: "elc"},
		},
	}

	out, diags := Lower(normalized(t, m))
	require.NotNil(t, out, "diags: %v", diags)

	data, err := ir.MarshalCanonical(out)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "compile_demo", data)
}
