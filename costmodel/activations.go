package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// ActivationCost models elementwise activation functions (ReLU, GeLU, tanh...).
// Any sharding of the input is also a valid sharding of the output, so no data
// crosses devices; the input slice is kept for the gradient.
type ActivationCost struct {
	costBase
}

// NewActivationCost builds the cost for an elementwise activation (arity 1 -> 1).
func NewActivationCost() *ActivationCost {
	return &ActivationCost{costBase: newCostBase(1, 1)}
}

func (c *ActivationCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *ActivationCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.replicatedParameterBytes(inputs)
}

// ForwardMemoryCost implements OperatorCost: the input slice is saved for the
// backward pass.
func (c *ActivationCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0)
}

func (c *ActivationCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// SoftmaxCost models softmax over the class axis. Valid candidate layouts never
// shard the normalized axis, so no exchange is needed; the output slice is the
// tensor kept for the gradient (softmax backward is expressed in terms of its
// output).
type SoftmaxCost struct {
	costBase
}

// NewSoftmaxCost builds the cost for a softmax (arity 1 -> 1).
func NewSoftmaxCost() *SoftmaxCost {
	return &SoftmaxCost{costBase: newCostBase(1, 1)}
}

func (c *SoftmaxCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *SoftmaxCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *SoftmaxCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.outputBytes(outputs, 0)
}

func (c *SoftmaxCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// PReLUCost models the parameterized ReLU: input 0 is the activation, input 1
// the learned slope vector. The slope is small but usually replicated on every
// device, so its gradient all-reduce dominates the backward communication.
type PReLUCost struct {
	costBase
}

// NewPReLUCost builds the cost for a parameterized ReLU (arity 2 -> 1).
func NewPReLUCost() *PReLUCost {
	return &PReLUCost{costBase: newCostBase(2, 1)}
}

func (c *PReLUCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *PReLUCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.replicatedParameterBytes(inputs)
}

func (c *PReLUCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0) + c.inputBytes(inputs, 1)
}

func (c *PReLUCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.parameterBytes(inputs)
}

var (
	_ OperatorCost = (*ActivationCost)(nil)
	_ OperatorCost = (*SoftmaxCost)(nil)
	_ OperatorCost = (*PReLUCost)(nil)
)
