package model

import (
	"fmt"

	"github.com/mkarlsen/emtab/internal/diag"
)

// Normalize produces a fully-expanded, internally-consistent copy of m:
// single-flow shorthand is expanded into canonical flow lists, flow shares
// and commodity kinds/units get their defaults, and every cross-reference is
// checked against its defining collection. The input is never mutated.
//
// All problems found are returned together; the normalized model is only
// usable when no error-severity diagnostic is present.
func Normalize(m *Model) (*Model, []diag.Diagnostic) {
	out := *m
	var diags []diag.Diagnostic

	diags = append(diags, checkDuplicates(m)...)

	out.Commodities = make([]Commodity, len(m.Commodities))
	for i, c := range m.Commodities {
		if c.Kind == "" {
			c.Kind = KindEnergy
		}
		if c.Unit == "" {
			c.Unit = DefaultUnits[c.Kind]
		}
		out.Commodities[i] = c
	}

	commodities := make(map[string]bool, len(out.Commodities))
	for _, c := range out.Commodities {
		commodities[c.Name] = true
	}
	processes := make(map[string]bool, len(m.Processes))
	for _, p := range m.Processes {
		processes[p.Name] = true
	}
	regions := make(map[string]bool, len(m.Regions))
	for _, r := range m.Regions {
		regions[r] = true
	}

	out.Processes = make([]Process, len(m.Processes))
	for i, p := range m.Processes {
		out.Processes[i] = normalizeProcess(p)
		for _, f := range out.Processes[i].Inputs {
			if !commodities[f.Commodity] {
				diags = append(diags, refError(p.Name, "inputs", "commodity", f.Commodity))
			}
		}
		for _, f := range out.Processes[i].Outputs {
			if !commodities[f.Commodity] {
				diags = append(diags, refError(p.Name, "outputs", "commodity", f.Commodity))
			}
		}
	}

	for _, s := range m.Scenarios {
		if s.Commodity != "" && !commodities[s.Commodity] {
			diags = append(diags, refError(s.Name, "commodity", "commodity", s.Commodity))
		}
	}

	for _, c := range m.Constraints {
		if c.Commodity != "" && !commodities[c.Commodity] {
			diags = append(diags, refError(c.Name, "commodity", "commodity", c.Commodity))
		}
		for _, proc := range c.Processes {
			if !processes[proc] {
				diags = append(diags, refError(c.Name, "processes", "process", proc))
			}
		}
	}

	out.TradeLinks = make([]TradeLink, len(m.TradeLinks))
	for i, link := range m.TradeLinks {
		if link.Efficiency == 0 {
			link.Efficiency = 1.0
		}
		out.TradeLinks[i] = link

		entity := fmt.Sprintf("trade_links[%d]", i)
		if !regions[link.Origin] {
			diags = append(diags, refError(entity, "origin", "region", link.Origin))
		}
		if !regions[link.Destination] {
			diags = append(diags, refError(entity, "destination", "region", link.Destination))
		}
		if !commodities[link.Commodity] {
			diags = append(diags, refError(entity, "commodity", "commodity", link.Commodity))
		}
	}

	return &out, diags
}

// normalizeProcess expands single-flow shorthand and applies share defaults.
func normalizeProcess(p Process) Process {
	if p.Input != "" && len(p.Inputs) == 0 {
		p.Inputs = []Flow{{Commodity: p.Input}}
	}
	if p.Output != "" && len(p.Outputs) == 0 {
		p.Outputs = []Flow{{Commodity: p.Output}}
	}
	p.Input, p.Output = "", ""

	p.Inputs = defaultShares(p.Inputs)
	p.Outputs = defaultShares(p.Outputs)
	return p
}

func defaultShares(flows []Flow) []Flow {
	out := make([]Flow, len(flows))
	for i, f := range flows {
		if f.Share == nil {
			one := 1.0
			f.Share = &one
		}
		out[i] = f
	}
	return out
}

func refError(entity, field, refKind, name string) diag.Diagnostic {
	return diag.Errorf(diag.KindReference, diag.CodeReference, entity, field,
		"unknown %s %q", refKind, name)
}

// checkDuplicates flags entities of the same kind sharing a name.
func checkDuplicates(m *Model) []diag.Diagnostic {
	var diags []diag.Diagnostic

	dup := func(kind string, names []string) {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			if seen[name] {
				diags = append(diags, diag.Errorf(diag.KindDuplicateName, diag.CodeDuplicateName,
					name, "", "duplicate %s name %q", kind, name))
			}
			seen[name] = true
		}
	}

	dup("region", m.Regions)

	names := make([]string, len(m.Commodities))
	for i, c := range m.Commodities {
		names[i] = c.Name
	}
	dup("commodity", names)

	names = make([]string, len(m.Processes))
	for i, p := range m.Processes {
		names[i] = p.Name
	}
	dup("process", names)

	names = make([]string, len(m.Scenarios))
	for i, s := range m.Scenarios {
		names[i] = s.Name
	}
	dup("scenario", names)

	names = make([]string, len(m.Constraints))
	for i, c := range m.Constraints {
		names[i] = c.Name
	}
	dup("constraint", names)

	return diags
}
