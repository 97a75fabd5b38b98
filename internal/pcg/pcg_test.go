package pcg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkarlsen/emtab/internal/model"
)

var kinds = map[string]model.CommodityKind{
	"elc":  model.KindEnergy,
	"ng":   model.KindEnergy,
	"heat": model.KindDemand,
	"stl":  model.KindMaterial,
	"co2":  model.KindEmission,
}

func TestInferExplicitTagShortCircuits(t *testing.T) {
	p := &model.Process{
		PCG:     "DEMO",
		Outputs: []model.Flow{{Commodity: "elc"}},
	}

	assert.Equal(t, "DEMO", Infer(p, kinds, nil))
}

func TestInferDemandOutputOutranksEnergy(t *testing.T) {
	p := &model.Process{
		Outputs: []model.Flow{{Commodity: "elc"}, {Commodity: "heat"}},
	}

	assert.Equal(t, "DEMO", Infer(p, kinds, nil))
}

func TestInferMaterialOutranksEnergy(t *testing.T) {
	p := &model.Process{
		Outputs: []model.Flow{{Commodity: "elc"}, {Commodity: "stl"}},
	}

	assert.Equal(t, "MATO", Infer(p, kinds, nil))
}

func TestInferOutputsBeforeInputs(t *testing.T) {
	// A demand input never outranks an energy output: the side is the outer
	// loop of the search.
	p := &model.Process{
		Inputs:  []model.Flow{{Commodity: "heat"}},
		Outputs: []model.Flow{{Commodity: "elc"}},
	}

	assert.Equal(t, "NRGO", Infer(p, kinds, nil))
}

func TestInferInputOnlyProcess(t *testing.T) {
	p := &model.Process{
		Inputs: []model.Flow{{Commodity: "ng"}},
	}

	assert.Equal(t, "NRGI", Infer(p, kinds, nil))
}

func TestInferEmissionOnlyOutput(t *testing.T) {
	p := &model.Process{
		Outputs: []model.Flow{{Commodity: "co2"}},
	}

	assert.Equal(t, "ENVO", Infer(p, kinds, nil))
}

func TestInferFlowlessFallsBackToEnergyOutput(t *testing.T) {
	assert.Equal(t, "NRGO", Infer(&model.Process{}, kinds, nil))
}

func TestInferCustomPriority(t *testing.T) {
	p := &model.Process{
		Outputs: []model.Flow{{Commodity: "elc"}, {Commodity: "heat"}},
	}
	priority := []model.CommodityKind{model.KindEnergy, model.KindDemand}

	assert.Equal(t, "NRGO", Infer(p, kinds, priority))
}

func TestInferDeterministicAcrossCalls(t *testing.T) {
	p := &model.Process{
		Inputs:  []model.Flow{{Commodity: "ng"}},
		Outputs: []model.Flow{{Commodity: "co2"}, {Commodity: "elc"}, {Commodity: "stl"}},
	}

	first := Infer(p, kinds, nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Infer(p, kinds, nil))
	}
	assert.Equal(t, "MATO", first)
}
