// Package lower is the single place that knows the mapping from each source
// entity kind to IR tables and rows. Each mapping is a pure function of the
// normalized model and the read-only compile context; densified series and
// resolved commodity groups are computed before a row is built, never
// back-patched onto entities.
//
// Failures are local and named: a malformed scenario stops that scenario's
// rows, not the lowering of unrelated entities. All diagnostics found in one
// run are reported together, and no IR is returned when any fatal diagnostic
// exists.
package lower

import (
	"sort"
	"strings"

	"github.com/mkarlsen/emtab/internal/diag"
	"github.com/mkarlsen/emtab/internal/ir"
	"github.com/mkarlsen/emtab/internal/model"
	"github.com/mkarlsen/emtab/internal/pcg"
	"github.com/mkarlsen/emtab/internal/series"
)

// Context carries the shared read-only state threaded through every table
// mapping. Passing it explicitly (rather than holding module state) keeps
// concurrent compilation of unrelated models safe.
type Context struct {
	Model    *model.Model
	Kinds    map[string]model.CommodityKind
	Years    []int
	Priority []model.CommodityKind
}

// Option adjusts the compile context.
type Option func(*Context)

// WithPriority overrides the commodity-kind priority order used for primary
// commodity group inference. Normally fixed; injectable so the ordering is
// independently testable.
func WithPriority(priority []model.CommodityKind) Option {
	return func(ctx *Context) { ctx.Priority = priority }
}

// Lower translates a normalized model into the tabular IR. The returned IR
// is nil whenever the diagnostics contain a fatal error; a partially built
// or silently truncated IR is never handed onward.
func Lower(m *model.Model, opts ...Option) (*ir.IR, []diag.Diagnostic) {
	ctx := &Context{
		Model:    m,
		Kinds:    m.CommodityKinds(),
		Years:    m.Years(),
		Priority: pcg.DefaultPriority,
	}
	for _, opt := range opts {
		opt(ctx)
	}

	var diags []diag.Diagnostic
	var tables []ir.Table

	add := func(t ir.Table, ds []diag.Diagnostic) {
		diags = append(diags, ds...)
		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	}

	add(lowerRegions(ctx), nil)
	add(lowerTimePeriods(ctx), nil)
	add(lowerCommodities(ctx), nil)
	add(lowerProcesses(ctx), nil)
	add(lowerTopology(ctx))
	add(lowerProcessParams(ctx), nil)
	add(lowerProcessParamsTS(ctx))
	add(lowerBounds(ctx))
	add(lowerScenarios(ctx, model.ScenarioDemandProjection, "demand_projection", "com_proj"))
	add(lowerScenarios(ctx, model.ScenarioCommodityPrice, "commodity_price", "com_cstnet"))
	add(lowerEmissionCaps(ctx))
	shareTerms, shareBounds := lowerActivityShares(ctx)
	add(shareTerms, nil)
	add(shareBounds, nil)
	add(lowerTradeLinks(ctx), nil)
	add(lowerTimesliceLevels(ctx), nil)
	add(lowerTimesliceFractions(ctx))

	if diag.HasFatal(diags) {
		return nil, diags
	}

	return &ir.IR{
		Model:   m.Name,
		Regions: m.Regions,
		Years:   ctx.Years,
		Tables:  tables,
	}, diags
}

func lowerRegions(ctx *Context) ir.Table {
	t := ir.Table{Name: "regions", Keys: []string{"region"}}
	for _, region := range ctx.Model.Regions {
		t.Rows = append(t.Rows, ir.Row{"region": ir.String(region)})
	}
	return t
}

func lowerTimePeriods(ctx *Context) ir.Table {
	t := ir.Table{
		Name:       "time_periods",
		Keys:       []string{"year"},
		TimeSeries: true,
		Numeric:    []string{"length"},
	}
	lengths := ctx.Model.PeriodLengths()
	for i, year := range ctx.Years {
		t.Rows = append(t.Rows, ir.Row{
			"year":   ir.Int(year),
			"length": ir.Int(lengths[i]),
		})
	}
	return t
}

func lowerCommodities(ctx *Context) ir.Table {
	t := ir.Table{Name: "commodities", Keys: []string{"region", "commodity"}}
	for _, region := range ctx.Model.Regions {
		for _, c := range ctx.Model.Commodities {
			t.Rows = append(t.Rows, ir.Row{
				"region":    ir.String(region),
				"csets":     ir.String(c.Kind.SetCode()),
				"commodity": ir.String(c.Name),
				"unit":      ir.String(c.Unit),
			})
		}
	}
	return t
}

func lowerProcesses(ctx *Context) ir.Table {
	t := ir.Table{Name: "processes", Keys: []string{"region", "process"}}
	for _, region := range ctx.Model.Regions {
		for i := range ctx.Model.Processes {
			p := &ctx.Model.Processes[i]
			tact := p.ActivityUnit
			if tact == "" {
				tact = "PJ"
			}
			tcap := p.CapacityUnit
			if tcap == "" {
				tcap = "GW"
			}
			t.Rows = append(t.Rows, ir.Row{
				"region":      ir.String(region),
				"process":     ir.String(p.Name),
				"sets":        ir.String(strings.Join(p.Sets, ",")),
				"primarycg":   ir.String(pcg.Infer(p, ctx.Kinds, ctx.Priority)),
				"description": ir.String(p.Description),
				"tact":        ir.String(tact),
				"tcap":        ir.String(tcap),
			})
		}
	}
	return t
}

// sortedYears returns the keys of a densified mapping in ascending order so
// row emission is deterministic.
func sortedYears(dense map[int]float64) []int {
	years := make([]int, 0, len(dense))
	for y := range dense {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// expand densifies a sparse series, translating failures into the
// interpolation diagnostic for the owning entity.
func expand(ctx *Context, entity string, s series.Series, policy series.Policy) (map[int]float64, *diag.Diagnostic) {
	if policy == "" {
		policy = series.PolicyLinear
	}
	dense, err := series.Expand(s, ctx.Years, policy)
	if err != nil {
		d := diag.Errorf(diag.KindInterpolation, diag.CodeInterpolation, entity, "", "%v", err)
		return nil, &d
	}
	return dense, nil
}
