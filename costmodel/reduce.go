package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// ReduceMethodCost models reduction operators (sum, max, min...) collapsing one
// or more axes. When the reduced axes were sharded the per-device partial
// results are combined with an all-reduce of the output slice.
//
// A reduction spanning the batch axis changes the gradient pattern: the scalar
// (or batch-collapsed) gradient has to be broadcast back to the devices holding
// the batch shards. SetCrossBatch selects that behavior; it perturbs the
// backward communication formula only, never memory.
type ReduceMethodCost struct {
	costBase
	crossBatch bool
}

// NewReduceMethodCost builds the cost for a reduction (arity 1 -> 1).
func NewReduceMethodCost() *ReduceMethodCost {
	return &ReduceMethodCost{costBase: newCostBase(1, 1)}
}

// SetCrossBatch declares whether the reduction spans the batch axis. The default
// is false (within-batch), the cheaper of the two readings. Like the other
// setters it must not be called concurrently with cost queries.
func (c *ReduceMethodCost) SetCrossBatch(crossBatch bool) {
	c.crossBatch = crossBatch
}

// CrossBatch reports the configured cross-batch flag.
func (c *ReduceMethodCost) CrossBatch() bool { return c.crossBatch }

// ForwardCommCost implements OperatorCost: if the reduction collapsed sharded
// axes (the output is cut into fewer shards than the input), the partial results
// are all-reduced.
func (c *ReduceMethodCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	if inputs[0].NumShards() > outputs[0].NumShards() {
		return c.outputBytes(outputs, 0)
	}
	return 0
}

// BackwardCommCost implements OperatorCost. A cross-batch reduction broadcasts
// the collapsed gradient back over the batch shards, sized by the input slice;
// a within-batch reduction only pays the usual replicated-parameter all-reduce.
func (c *ReduceMethodCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	if c.crossBatch {
		return c.inputBytes(inputs, 0)
	}
	return c.replicatedParameterBytes(inputs)
}

func (c *ReduceMethodCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0) + c.outputBytes(outputs, 0)
}

func (c *ReduceMethodCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// ReduceMeanCost is the mean reduction. It shares every formula with
// ReduceMethodCost except forward memory: the mean keeps the reciprocal-count
// scaling applied to the accumulated slice, an extra output-sized term.
type ReduceMeanCost struct {
	ReduceMethodCost
}

// NewReduceMeanCost builds the cost for a mean reduction (arity 1 -> 1).
func NewReduceMeanCost() *ReduceMeanCost {
	return &ReduceMeanCost{ReduceMethodCost: *NewReduceMethodCost()}
}

// ForwardMemoryCost overrides the plain reduction's formula; see ReduceMeanCost.
func (c *ReduceMeanCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0) + 2*c.outputBytes(outputs, 0)
}

var (
	_ OperatorCost = (*ReduceMethodCost)(nil)
	_ OperatorCost = (*ReduceMeanCost)(nil)
)
