package lower

import (
	"math"
	"sort"

	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
)

// lowerTimesliceLevels enumerates the temporal hierarchy, one row per
// (level, code).
func lowerTimesliceLevels(ctx *Context) ir.Table {
	t := ir.Table{Name: "timeslice_levels", Keys: []string{"level", "code"}}
	if ctx.Model.Timeslices == nil {
		return t
	}
	for _, level := range ctx.Model.Timeslices.Levels {
		for _, code := range level.Codes {
			t.Rows = append(t.Rows, ir.Row{
				"level": ir.String(level.Name),
				"code":  ir.String(code),
			})
		}
	}
	return t
}

// lowerTimesliceFractions emits one fraction row per leaf combination. The
// leaf fractions must partition the year: every leaf needs a fraction, every
// fraction key must name a leaf, and the fractions must sum to 1.0 within
// tolerance. Any violation withholds the whole fraction table.
func lowerTimesliceFractions(ctx *Context) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:    "timeslice_fractions",
		Keys:    []string{"timeslice"},
		Numeric: []string{"fraction"},
	}
	ts := ctx.Model.Timeslices
	if ts == nil || len(ts.Fractions) == 0 {
		return t, nil
	}

	leaves := ts.Leaves()
	leafSet := make(map[string]bool, len(leaves))
	for _, leaf := range leaves {
		leafSet[leaf] = true
	}

	var diags []diag.Diagnostic
	keys := make([]string, 0, len(ts.Fractions))
	for key := range ts.Fractions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !leafSet[key] {
			diags = append(diags, diag.Errorf(
				diag.KindReference, diag.CodeReference, "timeslices", "fractions",
				"fraction keyed to unknown leaf timeslice %q", key))
		}
	}
	for _, leaf := range leaves {
		if _, ok := ts.Fractions[leaf]; !ok {
			diags = append(diags, diag.Errorf(
				diag.KindFractionSum, diag.CodeFractionSum, "timeslices", "fractions",
				"leaf timeslice %q has no fraction", leaf))
		}
	}
	if len(diags) > 0 {
		return t, diags
	}

	sum := 0.0
	for _, f := range ts.Fractions {
		sum += f
	}
	if math.Abs(sum-1.0) > model.FractionTolerance {
		return t, []diag.Diagnostic{diag.Errorf(
			diag.KindFractionSum, diag.CodeFractionSum, "timeslices", "fractions",
			"leaf fractions sum to %v, want 1.0 within %v", sum, model.FractionTolerance)}
	}

	for _, leaf := range leaves {
		t.Rows = append(t.Rows, ir.Row{
			"timeslice": ir.String(leaf),
			"fraction":  ir.Float(ts.Fractions[leaf]),
		})
	}
	return t, nil
}
