package lower

import (
	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
)

// lowerEmissionCaps densifies each cap's right-hand side across the model
// years, exactly like scenario lowering.
func lowerEmissionCaps(ctx *Context) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:       "emission_caps",
		Keys:       []string{"constraint", "region", "year"},
		TimeSeries: true,
		Numeric:    []string{"value"},
	}
	var diags []diag.Diagnostic

	for _, c := range ctx.Model.Constraints {
		if c.Kind != model.ConstraintEmissionCap {
			continue
		}
		dense, d := expand(ctx, c.Name, c.Years, c.Policy)
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		limit := c.Limit
		if limit == "" {
			limit = model.LimitUpper
		}
		for _, region := range ctx.Model.Regions {
			for _, year := range sortedYears(dense) {
				t.Rows = append(t.Rows, ir.Row{
					"constraint": ir.String(c.Name),
					"region":     ir.String(region),
					"commodity":  ir.String(c.Commodity),
					"year":       ir.Int(year),
					"limtype":    ir.String(limCodes[limit]),
					"value":      ir.Float(dense[year]),
				})
			}
		}
	}
	return t, diags
}

// lowerActivityShares emits one coefficient row per participating process
// and one right-hand-side row carrying the static minimum share. No
// densification: the share holds for every period.
func lowerActivityShares(ctx *Context) (ir.Table, ir.Table) {
	terms := ir.Table{
		Name:    "share_terms",
		Keys:    []string{"constraint", "region", "process"},
		Numeric: []string{"coeff"},
	}
	bounds := ir.Table{
		Name:    "share_bounds",
		Keys:    []string{"constraint", "region"},
		Numeric: []string{"value"},
	}

	for _, c := range ctx.Model.Constraints {
		if c.Kind != model.ConstraintActivityShare {
			continue
		}
		limit := c.Limit
		if limit == "" {
			limit = model.LimitLower
		}
		for _, region := range ctx.Model.Regions {
			for _, process := range c.Processes {
				terms.Rows = append(terms.Rows, ir.Row{
					"constraint": ir.String(c.Name),
					"region":     ir.String(region),
					"commodity":  ir.String(c.Commodity),
					"process":    ir.String(process),
					"coeff":      ir.Float(1),
				})
			}
			bounds.Rows = append(bounds.Rows, ir.Row{
				"constraint": ir.String(c.Name),
				"region":     ir.String(region),
				"commodity":  ir.String(c.Commodity),
				"limtype":    ir.String(limCodes[limit]),
				"value":      ir.Float(c.MinShare),
			})
		}
	}
	return terms, bounds
}
