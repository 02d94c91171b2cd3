package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// OneHotCost models one-hot encoding of a label/index tensor: inputs are
// (indices, onValue, offValue), output is the encoded tensor. Indices carry no
// gradient, so the backward pass is free; encoding is local to each device.
type OneHotCost struct {
	costBase
}

// NewOneHotCost builds the cost for a one-hot encoding (arity 3 -> 1).
func NewOneHotCost() *OneHotCost {
	return &OneHotCost{costBase: newCostBase(3, 1)}
}

func (c *OneHotCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *OneHotCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// ForwardMemoryCost implements OperatorCost: the index slice plus the much
// larger encoded output slice.
func (c *OneHotCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0) + c.outputBytes(outputs, 0)
}

func (c *OneHotCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// SoftmaxCrossEntropyWithLogitsCost models the fused loss: inputs are
// (logits, labels), outputs are (loss, logits gradient). The fused kernel
// computes the backprop tensor during the forward pass and holds it for the
// backward one.
type SoftmaxCrossEntropyWithLogitsCost struct {
	costBase
}

// NewSoftmaxCrossEntropyWithLogitsCost builds the cost for the fused
// softmax-plus-cross-entropy loss (arity 2 -> 2).
func NewSoftmaxCrossEntropyWithLogitsCost() *SoftmaxCrossEntropyWithLogitsCost {
	return &SoftmaxCrossEntropyWithLogitsCost{costBase: newCostBase(2, 2)}
}

func (c *SoftmaxCrossEntropyWithLogitsCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *SoftmaxCrossEntropyWithLogitsCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *SoftmaxCrossEntropyWithLogitsCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.allInputBytes(inputs)
}

// BackwardMemoryCost implements OperatorCost: the stored logits-gradient slice.
func (c *SoftmaxCrossEntropyWithLogitsCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.outputBytes(outputs, 1)
}

var (
	_ OperatorCost = (*OneHotCost)(nil)
	_ OperatorCost = (*SoftmaxCrossEntropyWithLogitsCost)(nil)
)
