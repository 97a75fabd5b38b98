// Package model holds the in-memory representation of a source energy-system
// model: commodities, processes, flows, scenarios, constraints, trade links,
// and temporal structure. Entities are constructed once from the parsed
// source document, normalized, and then passed immutably through inference
// and lowering. Nothing here mutates after Normalize completes.
package model

import "github.com/mkarlsen/emtab/internal/series"

// CommodityKind is the closed set of commodity categories.
type CommodityKind string

const (
	KindEnergy   CommodityKind = "energy"
	KindMaterial CommodityKind = "material"
	KindEmission CommodityKind = "emission"
	KindDemand   CommodityKind = "demand"

	// KindFinancial is reserved for future commodity categories. No
	// commodity can be declared with it today, but the group-inference
	// priority order includes it so the ordering is total.
	KindFinancial CommodityKind = "financial"
)

// DeclaredKinds are the kinds a commodity may be declared with.
var DeclaredKinds = []CommodityKind{KindEnergy, KindMaterial, KindEmission, KindDemand}

// SetCode returns the commodity-set code used in emitted tables.
func (k CommodityKind) SetCode() string {
	switch k {
	case KindEnergy:
		return "NRG"
	case KindMaterial:
		return "MAT"
	case KindEmission:
		return "ENV"
	case KindDemand:
		return "DEM"
	case KindFinancial:
		return "FIN"
	}
	return "NRG"
}

// DefaultUnits maps commodity kinds to their default units. An explicit unit
// on the commodity always overrides the default.
var DefaultUnits = map[CommodityKind]string{
	KindEnergy:   "PJ",
	KindDemand:   "PJ",
	KindEmission: "Mt",
	KindMaterial: "Mt",
}

// Commodity is immutable once created.
type Commodity struct {
	Name string
	Kind CommodityKind
	Unit string // defaulted by kind when empty
}

// Side distinguishes input from output flows.
type Side string

const (
	SideInput  Side = "in"
	SideOutput Side = "out"
)

// Flow connects a process to a commodity on one side. A nil Share means
// unset; normalization defaults it to 1.0, and an explicit zero is kept.
// For an output flow whose commodity kind is emission, Share carries
// emission-factor semantics: emitted quantity per unit of process activity.
type Flow struct {
	Commodity string
	Share     *float64
}

// Attr is a scalar or time-varying process attribute. Exactly one of Scalar
// and Values is set; Policy applies only when Values is set.
type Attr struct {
	Scalar *float64
	Values series.Series
	Policy series.Policy
}

// TimeVarying reports whether the attribute is declared as a sparse series.
func (a *Attr) TimeVarying() bool {
	return a != nil && len(a.Values) > 0
}

// BoundKind names the quantity a bound limits.
type BoundKind string

const (
	BoundActivity    BoundKind = "activity"
	BoundCapacity    BoundKind = "capacity"
	BoundNewCapacity BoundKind = "new_capacity"
)

// LimitKind is the direction of a bound or constraint limit.
type LimitKind string

const (
	LimitUpper LimitKind = "upper"
	LimitLower LimitKind = "lower"
	LimitFixed LimitKind = "fixed"
)

// Bound is one numeric limit on a process quantity.
type Bound struct {
	Kind  BoundKind
	Limit LimitKind
	Value float64
}

// Process is a technology with input and output flows. A process's primary
// commodity group, once resolved (explicit or inferred), is immutable for
// the rest of lowering.
type Process struct {
	Name        string
	Description string
	Sets        []string

	// Input and Output are the single-flow shorthand forms; Normalize
	// expands them into Inputs/Outputs and clears them.
	Input  string
	Output string

	Inputs  []Flow
	Outputs []Flow

	Efficiency *Attr
	InvCost    *Attr
	FixOM      *Attr
	VarOM      *Attr
	Life       *Attr

	// PCG is the explicit primary commodity group tag; empty means inferred.
	PCG string

	Bounds []Bound

	ActivityUnit string
	CapacityUnit string
}

// ScenarioKind selects the scenario's semantics.
type ScenarioKind string

const (
	ScenarioCommodityPrice   ScenarioKind = "commodity_price"
	ScenarioDemandProjection ScenarioKind = "demand_projection"
)

// Scenario is a year-keyed projection for one target commodity.
type Scenario struct {
	Name      string
	Kind      ScenarioKind
	Commodity string
	Policy    series.Policy
	Values    series.Series
}

// ConstraintKind selects the constraint's semantics.
type ConstraintKind string

const (
	ConstraintEmissionCap   ConstraintKind = "emission_cap"
	ConstraintActivityShare ConstraintKind = "activity_share"
)

// Constraint is either an emission cap (year-keyed RHS on a commodity) or an
// activity share (static minimum share across participating processes).
type Constraint struct {
	Name      string
	Kind      ConstraintKind
	Commodity string
	Limit     LimitKind // defaults to upper for caps, lower for shares

	// Emission cap fields.
	Years  series.Series
	Policy series.Policy

	// Activity share fields.
	MinShare  float64
	Processes []string
}

// TradeLink declares a commodity exchange pathway between two regions. A
// bidirectional link is logically two unidirectional flows sharing one
// origin/destination pair and one process identity.
type TradeLink struct {
	Origin        string
	Destination   string
	Commodity     string
	Bidirectional bool
	Efficiency    float64 // transfer efficiency, 1.0 = lossless
}

// TimesliceLevel is one named temporal subdivision (e.g. season).
type TimesliceLevel struct {
	Name  string
	Codes []string
}

// Timeslices is the intra-year temporal hierarchy. Fractions assigns a
// fraction of the year to every leaf combination; leaf fractions must sum
// to 1.0 within FractionTolerance.
type Timeslices struct {
	Levels    []TimesliceLevel
	Fractions map[string]float64
}

// FractionTolerance is the permitted deviation of the leaf fraction sum
// from 1.0.
const FractionTolerance = 1e-6

// Leaves returns the leaf timeslice names: the cross product of level codes,
// concatenated in level order.
func (t *Timeslices) Leaves() []string {
	leaves := []string{""}
	for _, level := range t.Levels {
		if len(level.Codes) == 0 {
			continue
		}
		next := make([]string, 0, len(leaves)*len(level.Codes))
		for _, prefix := range leaves {
			for _, code := range level.Codes {
				next = append(next, prefix+code)
			}
		}
		leaves = next
	}
	if len(leaves) == 1 && leaves[0] == "" {
		return nil
	}
	return leaves
}

// Model is the root aggregate.
type Model struct {
	Name        string
	Regions     []string
	Commodities []Commodity
	Processes   []Process
	Scenarios   []Scenario
	Constraints []Constraint
	TradeLinks  []TradeLink
	Timeslices  *Timeslices

	StartYear int   // defaults to 2020
	Periods   []int // period lengths in years, defaults to four decades
}

// PeriodLengths returns the declared period lengths, defaulted to four
// decades when the model declares none.
func (m *Model) PeriodLengths() []int {
	if len(m.Periods) == 0 {
		return []int{10, 10, 10, 10}
	}
	return m.Periods
}

// Years derives the model representative years from the start year and the
// cumulative period lengths.
func (m *Model) Years() []int {
	start := m.StartYear
	if start == 0 {
		start = 2020
	}
	periods := m.PeriodLengths()
	years := make([]int, 0, len(periods))
	y := start
	for _, p := range periods {
		years = append(years, y)
		y += p
	}
	return years
}

// CommodityKinds returns the name→kind lookup threaded through inference
// and lowering.
func (m *Model) CommodityKinds() map[string]CommodityKind {
	kinds := make(map[string]CommodityKind, len(m.Commodities))
	for _, c := range m.Commodities {
		kinds[c.Name] = c.Kind
	}
	return kinds
}
