package lower

import (
	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
)

// paramColumns maps process attributes to their emitted parameter names.
// The names are the canonical attribute column headers of the target format.
var paramColumns = []struct {
	name string
	attr func(*model.Process) *model.Attr
}{
	{"eff", func(p *model.Process) *model.Attr { return p.Efficiency }},
	{"ncap_cost", func(p *model.Process) *model.Attr { return p.InvCost }},
	{"ncap_fom", func(p *model.Process) *model.Attr { return p.FixOM }},
	{"act_cost", func(p *model.Process) *model.Attr { return p.VarOM }},
	{"ncap_tlife", func(p *model.Process) *model.Attr { return p.Life }},
}

// boundColumns maps bound kinds to their emitted parameter names.
var boundColumns = map[model.BoundKind]string{
	model.BoundActivity:    "act_bnd",
	model.BoundCapacity:    "cap_bnd",
	model.BoundNewCapacity: "ncap_bnd",
}

// limCodes maps limit kinds to their two-letter table codes.
var limCodes = map[model.LimitKind]string{
	model.LimitUpper: "up",
	model.LimitLower: "lo",
	model.LimitFixed: "fx",
}

// lowerTopology emits one row per (region, process, commodity, side). For an
// output flow on an emission-kind commodity, the share column carries the
// emission factor per unit of activity.
func lowerTopology(ctx *Context) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:    "topology",
		Keys:    []string{"region", "process", "commodity", "side"},
		Numeric: []string{"share"},
	}
	for _, region := range ctx.Model.Regions {
		for i := range ctx.Model.Processes {
			p := &ctx.Model.Processes[i]
			for _, f := range p.Inputs {
				t.Rows = append(t.Rows, topologyRow(region, p.Name, f, model.SideInput))
			}
			for _, f := range p.Outputs {
				t.Rows = append(t.Rows, topologyRow(region, p.Name, f, model.SideOutput))
			}
		}
	}
	return t, nil
}

func topologyRow(region, process string, f model.Flow, side model.Side) ir.Row {
	return ir.Row{
		"region":    ir.String(region),
		"process":   ir.String(process),
		"commodity": ir.String(f.Commodity),
		"side":      ir.String(string(side)),
		"share":     ir.Float(*f.Share),
	}
}

// lowerProcessParams emits scalar process attributes, one fact per row.
func lowerProcessParams(ctx *Context) ir.Table {
	t := ir.Table{
		Name:    "process_params",
		Keys:    []string{"region", "process", "param"},
		Numeric: []string{"value"},
	}
	for _, region := range ctx.Model.Regions {
		for i := range ctx.Model.Processes {
			p := &ctx.Model.Processes[i]
			for _, col := range paramColumns {
				attr := col.attr(p)
				if attr == nil || attr.Scalar == nil {
					continue
				}
				t.Rows = append(t.Rows, ir.Row{
					"region":  ir.String(region),
					"process": ir.String(p.Name),
					"param":   ir.String(col.name),
					"value":   ir.Float(*attr.Scalar),
				})
			}
		}
	}
	return t
}

// lowerProcessParamsTS densifies time-varying process attributes into one
// row per (region, process, param, year). A densification failure drops all
// of the owning process's time-series rows but not other processes'.
func lowerProcessParamsTS(ctx *Context) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:       "process_params_ts",
		Keys:       []string{"region", "process", "param", "year"},
		TimeSeries: true,
		Numeric:    []string{"value"},
	}
	var diags []diag.Diagnostic

	for i := range ctx.Model.Processes {
		p := &ctx.Model.Processes[i]
		var rows []ir.Row
		failed := false

		for _, col := range paramColumns {
			attr := col.attr(p)
			if !attr.TimeVarying() {
				continue
			}
			dense, d := expand(ctx, p.Name, attr.Values, attr.Policy)
			if d != nil {
				d.Field = col.name
				diags = append(diags, *d)
				failed = true
				continue
			}
			for _, region := range ctx.Model.Regions {
				for _, year := range sortedYears(dense) {
					rows = append(rows, ir.Row{
						"region":  ir.String(region),
						"process": ir.String(p.Name),
						"param":   ir.String(col.name),
						"year":    ir.Int(year),
						"value":   ir.Float(dense[year]),
					})
				}
			}
		}

		if !failed {
			t.Rows = append(t.Rows, rows...)
		}
	}
	return t, diags
}

// lowerBounds emits one row per (process, bound kind, limit kind). A process
// declaring both a fixed and an upper or lower limit for the same bound kind
// is rejected; fixed is mutually exclusive with the directional limits.
func lowerBounds(ctx *Context) (ir.Table, []diag.Diagnostic) {
	t := ir.Table{
		Name:    "bounds",
		Keys:    []string{"region", "process", "bound", "limtype"},
		Numeric: []string{"value"},
	}
	var diags []diag.Diagnostic

	for i := range ctx.Model.Processes {
		p := &ctx.Model.Processes[i]
		if d := conflictingBound(p); d != nil {
			diags = append(diags, *d)
			continue
		}
		for _, region := range ctx.Model.Regions {
			for _, b := range p.Bounds {
				t.Rows = append(t.Rows, ir.Row{
					"region":  ir.String(region),
					"process": ir.String(p.Name),
					"bound":   ir.String(boundColumns[b.Kind]),
					"limtype": ir.String(limCodes[b.Limit]),
					"value":   ir.Float(b.Value),
				})
			}
		}
	}
	return t, diags
}

func conflictingBound(p *model.Process) *diag.Diagnostic {
	type limits struct{ fixed, directional bool }
	byKind := make(map[model.BoundKind]*limits)
	for _, b := range p.Bounds {
		l := byKind[b.Kind]
		if l == nil {
			l = &limits{}
			byKind[b.Kind] = l
		}
		if b.Limit == model.LimitFixed {
			l.fixed = true
		} else {
			l.directional = true
		}
		if l.fixed && l.directional {
			d := diag.Errorf(diag.KindConflictingBound, diag.CodeConflictingBound,
				p.Name, string(boundColumns[b.Kind]),
				"fixed bound conflicts with upper/lower bound on the same quantity")
			return &d
		}
	}
	return nil
}
