package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkarlsen/emtab/internal/model"
	"github.com/mkarlsen/emtab/internal/series"
)

// The loader decodes the YAML source document into the entity model. Schema
// enforcement is the upstream tooling's job; the loader maps document shapes
// onto entities, including the single-flow shorthand (input: NG) which
// normalization later expands. Closed enum sets (commodity/scenario/constraint
// types, limit kinds, interpolation policies) are checked here: a typo'd enum
// would otherwise silently change the entity's meaning.

type sourceDoc struct {
	Model sourceModel `yaml:"model"`
}

type sourceModel struct {
	Name        string             `yaml:"name"`
	Regions     []string           `yaml:"regions"`
	StartYear   int                `yaml:"start_year"`
	TimePeriods []int              `yaml:"time_periods"`
	Commodities []sourceCommodity  `yaml:"commodities"`
	Processes   []sourceProcess    `yaml:"processes"`
	Scenarios   []sourceScenario   `yaml:"scenarios"`
	Constraints []sourceConstraint `yaml:"constraints"`
	TradeLinks  []sourceTradeLink  `yaml:"trade_links"`
	Timeslices  *sourceTimeslices  `yaml:"timeslices"`
}

type sourceCommodity struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Unit string `yaml:"unit"`
}

type sourceFlow struct {
	Commodity string   `yaml:"commodity"`
	Share     *float64 `yaml:"share"`
}

type sourceBound struct {
	Up *float64 `yaml:"up"`
	Lo *float64 `yaml:"lo"`
	Fx *float64 `yaml:"fx"`
}

type sourceProcess struct {
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	Sets          []string     `yaml:"sets"`
	Input         string       `yaml:"input"`
	Output        string       `yaml:"output"`
	Inputs        []sourceFlow `yaml:"inputs"`
	Outputs       []sourceFlow `yaml:"outputs"`
	Efficiency    *attrValue   `yaml:"efficiency"`
	InvCost       *attrValue   `yaml:"invcost"`
	FixOM         *attrValue   `yaml:"fixom"`
	VarOM         *attrValue   `yaml:"varom"`
	Life          *attrValue   `yaml:"life"`
	PCG           string       `yaml:"primary_commodity_group"`
	ActivityBound *sourceBound `yaml:"activity_bound"`
	CapBound      *sourceBound `yaml:"cap_bound"`
	NcapBound     *sourceBound `yaml:"ncap_bound"`
	ActivityUnit  string       `yaml:"activity_unit"`
	CapacityUnit  string       `yaml:"capacity_unit"`
}

type sourceScenario struct {
	Name          string          `yaml:"name"`
	Type          string          `yaml:"type"`
	Commodity     string          `yaml:"commodity"`
	Interpolation string          `yaml:"interpolation"`
	Values        map[int]float64 `yaml:"values"`
}

type sourceConstraint struct {
	Name          string          `yaml:"name"`
	Type          string          `yaml:"type"`
	Commodity     string          `yaml:"commodity"`
	Limtype       string          `yaml:"limtype"`
	Years         map[int]float64 `yaml:"years"`
	Interpolation string          `yaml:"interpolation"`
	Limit         *float64        `yaml:"limit"`
	MinimumShare  float64         `yaml:"minimum_share"`
	Processes     []string        `yaml:"processes"`
}

type sourceTradeLink struct {
	Origin        string  `yaml:"origin"`
	Destination   string  `yaml:"destination"`
	Commodity     string  `yaml:"commodity"`
	Bidirectional *bool   `yaml:"bidirectional"`
	Efficiency    float64 `yaml:"efficiency"`
}

type sourceTimesliceLevel struct {
	Name  string   `yaml:"name"`
	Codes []string `yaml:"codes"`
}

type sourceTimeslices struct {
	Levels    []sourceTimesliceLevel `yaml:"levels"`
	Fractions map[string]float64     `yaml:"fractions"`
}

// attrValue is either a bare scalar or a time-varying spec with a values map
// and an interpolation policy.
type attrValue struct {
	Scalar        *float64
	Values        map[int]float64
	Interpolation string
}

// UnmarshalYAML accepts both forms.
func (a *attrValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		a.Scalar = &v
		return nil
	}

	var spec struct {
		Values        map[int]float64 `yaml:"values"`
		Interpolation string          `yaml:"interpolation"`
	}
	if err := node.Decode(&spec); err != nil {
		return err
	}
	if len(spec.Values) == 0 {
		return fmt.Errorf("time-varying attribute needs a non-empty values map")
	}
	a.Values = spec.Values
	a.Interpolation = spec.Interpolation
	return nil
}

// LoadModel reads and decodes a YAML model document into the entity model.
func LoadModel(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc sourceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return buildModel(&doc.Model)
}

func buildModel(src *sourceModel) (*model.Model, error) {
	m := &model.Model{
		Name:      src.Name,
		Regions:   src.Regions,
		StartYear: src.StartYear,
		Periods:   src.TimePeriods,
	}

	for _, c := range src.Commodities {
		kind, err := buildCommodityKind(c.Type)
		if err != nil {
			return nil, fmt.Errorf("commodity %q: %w", c.Name, err)
		}
		m.Commodities = append(m.Commodities, model.Commodity{
			Name: c.Name,
			Kind: kind,
			Unit: c.Unit,
		})
	}

	for _, p := range src.Processes {
		proc := model.Process{
			Name:         p.Name,
			Description:  p.Description,
			Sets:         p.Sets,
			Input:        p.Input,
			Output:       p.Output,
			Inputs:       buildFlows(p.Inputs),
			Outputs:      buildFlows(p.Outputs),
			Efficiency:   buildAttr(p.Efficiency),
			InvCost:      buildAttr(p.InvCost),
			FixOM:        buildAttr(p.FixOM),
			VarOM:        buildAttr(p.VarOM),
			Life:         buildAttr(p.Life),
			PCG:          p.PCG,
			ActivityUnit: p.ActivityUnit,
			CapacityUnit: p.CapacityUnit,
		}
		proc.Bounds = append(proc.Bounds, buildBounds(model.BoundActivity, p.ActivityBound)...)
		proc.Bounds = append(proc.Bounds, buildBounds(model.BoundCapacity, p.CapBound)...)
		proc.Bounds = append(proc.Bounds, buildBounds(model.BoundNewCapacity, p.NcapBound)...)
		m.Processes = append(m.Processes, proc)
	}

	for _, s := range src.Scenarios {
		kind, err := buildScenarioKind(s.Type)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		policy, err := buildPolicy(s.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		m.Scenarios = append(m.Scenarios, model.Scenario{
			Name:      s.Name,
			Kind:      kind,
			Commodity: s.Commodity,
			Policy:    policy,
			Values:    series.FromMap(s.Values),
		})
	}

	for _, c := range src.Constraints {
		kind, err := buildConstraintKind(c.Type)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
		}
		limit, err := buildLimit(c.Limtype)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
		}
		policy, err := buildPolicy(c.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
		}
		constraint := model.Constraint{
			Name:      c.Name,
			Kind:      kind,
			Commodity: c.Commodity,
			Limit:     limit,
			Policy:    policy,
			MinShare:  c.MinimumShare,
			Processes: c.Processes,
		}
		switch {
		case len(c.Years) > 0:
			constraint.Years = series.FromMap(c.Years)
		case c.Limit != nil:
			// A single limit applies to every model year: one sparse point
			// plus the hold policy keeps it constant.
			start := src.StartYear
			if start == 0 {
				start = 2020
			}
			constraint.Years = series.Series{{Year: start, Value: *c.Limit}}
			constraint.Policy = series.PolicyHold
		}
		m.Constraints = append(m.Constraints, constraint)
	}

	for _, link := range src.TradeLinks {
		bidirectional := true
		if link.Bidirectional != nil {
			bidirectional = *link.Bidirectional
		}
		m.TradeLinks = append(m.TradeLinks, model.TradeLink{
			Origin:        link.Origin,
			Destination:   link.Destination,
			Commodity:     link.Commodity,
			Bidirectional: bidirectional,
			Efficiency:    link.Efficiency,
		})
	}

	if src.Timeslices != nil {
		ts := &model.Timeslices{Fractions: src.Timeslices.Fractions}
		for _, level := range src.Timeslices.Levels {
			ts.Levels = append(ts.Levels, model.TimesliceLevel{Name: level.Name, Codes: level.Codes})
		}
		m.Timeslices = ts
	}

	return m, nil
}

func buildFlows(flows []sourceFlow) []model.Flow {
	out := make([]model.Flow, 0, len(flows))
	for _, f := range flows {
		out = append(out, model.Flow{Commodity: f.Commodity, Share: f.Share})
	}
	return out
}

func buildAttr(a *attrValue) *model.Attr {
	if a == nil {
		return nil
	}
	if a.Scalar != nil {
		return &model.Attr{Scalar: a.Scalar}
	}
	policy, err := buildPolicy(a.Interpolation)
	if err != nil {
		policy = series.PolicyLinear
	}
	return &model.Attr{Values: series.FromMap(a.Values), Policy: policy}
}

func buildBounds(kind model.BoundKind, b *sourceBound) []model.Bound {
	if b == nil {
		return nil
	}
	var bounds []model.Bound
	if b.Up != nil {
		bounds = append(bounds, model.Bound{Kind: kind, Limit: model.LimitUpper, Value: *b.Up})
	}
	if b.Lo != nil {
		bounds = append(bounds, model.Bound{Kind: kind, Limit: model.LimitLower, Value: *b.Lo})
	}
	if b.Fx != nil {
		bounds = append(bounds, model.Bound{Kind: kind, Limit: model.LimitFixed, Value: *b.Fx})
	}
	return bounds
}

func buildPolicy(name string) (series.Policy, error) {
	if name == "" {
		return series.PolicyLinear, nil
	}
	p := series.Policy(name)
	if !series.ValidPolicy(p) {
		return "", fmt.Errorf("unknown interpolation policy %q", name)
	}
	return p, nil
}

// buildCommodityKind checks the declared type against the closed kind set.
// Empty is allowed; normalization defaults it to energy.
func buildCommodityKind(name string) (model.CommodityKind, error) {
	if name == "" {
		return "", nil
	}
	kind := model.CommodityKind(name)
	for _, declared := range model.DeclaredKinds {
		if kind == declared {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown commodity type %q", name)
}

func buildScenarioKind(name string) (model.ScenarioKind, error) {
	kind := model.ScenarioKind(name)
	switch kind {
	case model.ScenarioDemandProjection, model.ScenarioCommodityPrice:
		return kind, nil
	}
	return "", fmt.Errorf("unknown scenario type %q", name)
}

func buildConstraintKind(name string) (model.ConstraintKind, error) {
	kind := model.ConstraintKind(name)
	switch kind {
	case model.ConstraintEmissionCap, model.ConstraintActivityShare:
		return kind, nil
	}
	return "", fmt.Errorf("unknown constraint type %q", name)
}

// buildLimit maps limtype spellings to limit kinds. Empty is allowed;
// lowering applies the per-constraint default.
func buildLimit(name string) (model.LimitKind, error) {
	switch name {
	case "":
		return "", nil
	case "up", "upper":
		return model.LimitUpper, nil
	case "lo", "lower":
		return model.LimitLower, nil
	case "fx", "fixed":
		return model.LimitFixed, nil
	}
	return "", fmt.Errorf("unknown limit type %q", name)
}
