package lower

import (
	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
)

// lowerScenarios densifies every scenario of the given kind and emits one
// row per (region, target commodity, year) under the scenario's attribute
// column. A scenario whose series cannot be densified contributes no rows;
// the remaining scenarios still lower.
func lowerScenarios(ctx *Context, kind model.ScenarioKind, table, column string) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:       table,
		Keys:       []string{"region", "commodity", "year"},
		TimeSeries: true,
		Numeric:    []string{column},
	}
	var diags []diag.Diagnostic

	for _, s := range ctx.Model.Scenarios {
		if s.Kind != kind {
			continue
		}
		dense, d := expand(ctx, s.Name, s.Values, s.Policy)
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		for _, region := range ctx.Model.Regions {
			for _, year := range sortedYears(dense) {
				t.Rows = append(t.Rows, ir.Row{
					"region":    ir.String(region),
					"commodity": ir.String(s.Commodity),
					"year":      ir.Int(year),
					column:      ir.Float(dense[year]),
				})
			}
		}
	}
	return t, diags
}
