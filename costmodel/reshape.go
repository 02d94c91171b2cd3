package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// ReshapeCost models a reshape between two logical shapes. When the input and
// output layouts agree on slice size and replication the reshape is a local
// reinterpretation; otherwise the tensor has to be redistributed across devices,
// and the gradient redistributed back.
type ReshapeCost struct {
	costBase
}

// NewReshapeCost builds the cost for a reshape (arity 1 -> 1).
func NewReshapeCost() *ReshapeCost {
	return &ReshapeCost{costBase: newCostBase(1, 1)}
}

// redistributes reports whether moving from the input layout to the output
// layout requires exchanging data between devices.
func (c *ReshapeCost) redistributes(in, out layout.TensorInfo) bool {
	return in.SliceElements() != out.SliceElements() || in.Replicas() != out.Replicas()
}

func (c *ReshapeCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	if c.redistributes(inputs[0], outputs[0]) {
		return c.outputBytes(outputs, 0)
	}
	return 0
}

// BackwardCommCost implements OperatorCost: the gradient travels the reverse
// redistribution, sized by the input layout.
func (c *ReshapeCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	if c.redistributes(inputs[0], outputs[0]) {
		return c.inputBytes(inputs, 0)
	}
	return 0
}

func (c *ReshapeCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0) + c.outputBytes(outputs, 0)
}

func (c *ReshapeCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

var _ OperatorCost = (*ReshapeCost)(nil)
