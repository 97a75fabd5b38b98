// Package pcg resolves a process's primary commodity group: the commodity
// kind-and-side tag that defines its activity and capacity semantics.
//
// Inference is a deterministic priority search over the process flows. The
// result must be reproducible across recompilation because it feeds into
// downstream activity and efficiency semantics, so the search is a pure
// function over an explicit ordered kind list with no hidden state.
package pcg

import "github.com/mkarlsen/emtab/internal/model"

// DefaultPriority is the commodity-kind priority order. Demand outranks
// material, material outranks energy, and emission ranks last among the
// populated kinds; financial is reserved for future kinds.
var DefaultPriority = []model.CommodityKind{
	model.KindDemand,
	model.KindMaterial,
	model.KindEnergy,
	model.KindEmission,
	model.KindFinancial,
}

// Side letters appended to the kind's set code to form the tag.
const (
	outputLetter = "O"
	inputLetter  = "I"
)

// Infer resolves the primary commodity group tag for p. An explicit tag on
// the process short-circuits inference entirely. Otherwise the first match
// wins over (side, kind): outputs before inputs, kinds in priority order.
// A process with no flows at all falls back to the energy-output tag.
//
// Ties within one (side, kind) pair need no tiebreak: the result is the kind
// tag, not a specific flow, so every tied flow yields the same tag.
func Infer(p *model.Process, kinds map[string]model.CommodityKind, priority []model.CommodityKind) string {
	if p.PCG != "" {
		return p.PCG
	}
	if len(priority) == 0 {
		priority = DefaultPriority
	}

	sides := []struct {
		flows  []model.Flow
		letter string
	}{
		{p.Outputs, outputLetter},
		{p.Inputs, inputLetter},
	}

	for _, side := range sides {
		for _, kind := range priority {
			for _, flow := range side.flows {
				if kinds[flow.Commodity] == kind {
					return kind.SetCode() + side.letter
				}
			}
		}
	}

	return model.KindEnergy.SetCode() + outputLetter
}
