package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// ArithmeticCost models binary elementwise arithmetic (add, sub, mul, div, the
// bias-add of a dense layer...). With aligned layouts the forward pass is local;
// a replicated parameter operand (e.g. a broadcast bias) pays its gradient
// all-reduce on the way back.
type ArithmeticCost struct {
	costBase
}

// NewArithmeticCost builds the cost for a binary elementwise op (arity 2 -> 1).
func NewArithmeticCost() *ArithmeticCost {
	return &ArithmeticCost{costBase: newCostBase(2, 1)}
}

func (c *ArithmeticCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *ArithmeticCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.replicatedParameterBytes(inputs)
}

func (c *ArithmeticCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.allInputBytes(inputs)
}

func (c *ArithmeticCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.parameterBytes(inputs)
}

// L2NormalizeCost models L2 normalization along an axis candidate layouts keep
// unsharded, so the forward pass is local; the input slice is retained for the
// gradient.
type L2NormalizeCost struct {
	costBase
}

// NewL2NormalizeCost builds the cost for an L2 normalization (arity 1 -> 1).
func NewL2NormalizeCost() *L2NormalizeCost {
	return &L2NormalizeCost{costBase: newCostBase(1, 1)}
}

func (c *L2NormalizeCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *L2NormalizeCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.replicatedParameterBytes(inputs)
}

func (c *L2NormalizeCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0)
}

// BackwardMemoryCost implements OperatorCost: the gradient needs the normalized
// input slice alongside the incoming gradient.
func (c *L2NormalizeCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0)
}

var (
	_ OperatorCost = (*ArithmeticCost)(nil)
	_ OperatorCost = (*L2NormalizeCost)(nil)
)
