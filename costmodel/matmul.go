package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// MatMulCost models a matrix multiply with inputs (activation, weight) and one
// output. This is the variant where sharding decisions matter most: splitting
// the contracted dimension leaves every device with a partial product that must
// be all-reduced, and a replicated weight pays a gradient all-reduce on the way
// back.
type MatMulCost struct {
	costBase
}

// NewMatMulCost builds the cost for a matrix multiply (arity 2 -> 1).
func NewMatMulCost() *MatMulCost {
	return &MatMulCost{costBase: newCostBase(2, 1)}
}

// ForwardCommCost implements OperatorCost. A replicated output means every
// device holds a partial product of the contracted dimension, combined with an
// all-reduce of the output slice.
func (c *MatMulCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	if outputs[0].Replicated() {
		return c.outputBytes(outputs, 0)
	}
	return 0
}

// BackwardCommCost implements OperatorCost: the all-reduce of the gradients of
// replicated parameter inputs.
func (c *MatMulCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.replicatedParameterBytes(inputs)
}

// ForwardMemoryCost implements OperatorCost: both operand slices and the result
// slice are live on the device during the forward pass.
func (c *MatMulCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.allInputBytes(inputs) + c.allOutputBytes(outputs)
}

// BackwardMemoryCost implements OperatorCost: the gradient pass accumulates one
// gradient slice per parameter input.
func (c *MatMulCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.parameterBytes(inputs)
}

var _ OperatorCost = (*MatMulCost)(nil)
