package costmodel

import (
	"github.com/autoshard/autoshard/layout"
)

// This file holds the data-source and structural pass-through families. Sources
// are graph entry points: there is no upstream tensor to shard and no backward
// step, so every cost primitive is the literal 0. Pass-throughs split only along
// the replicated batch axis, so they exchange nothing between devices but still
// occupy memory.

// GeneratorCost models a generic data-producing node with numOutputs emitted
// tensors and no inputs.
type GeneratorCost struct {
	costBase
}

// NewGeneratorCost builds the cost for a generator emitting numOutputs tensors.
func NewGeneratorCost(numOutputs int) *GeneratorCost {
	return &GeneratorCost{costBase: newCostBase(0, numOutputs)}
}

// ForwardCommCost implements OperatorCost: a source exchanges nothing.
func (c *GeneratorCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// BackwardCommCost implements OperatorCost: a source has no backward step.
func (c *GeneratorCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// ForwardMemoryCost implements OperatorCost: emitted batches are charged to the
// consuming operators, not to the source.
func (c *GeneratorCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// BackwardMemoryCost implements OperatorCost.
func (c *GeneratorCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// GetNextCost models the "get next batch" node feeding the graph from the
// dataset pipeline. Cost-wise it is a source: all four primitives are 0.
type GetNextCost struct {
	costBase
}

// NewGetNextCost builds the cost for a get-next node emitting numOutputs tensors.
func NewGetNextCost(numOutputs int) *GetNextCost {
	return &GetNextCost{costBase: newCostBase(0, numOutputs)}
}

func (c *GetNextCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *GetNextCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *GetNextCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *GetNextCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// VirtualDatasetCost models the virtual node the planner inserts between the
// dataset and the model to distribute numTensors inputs: it forwards each tensor
// unchanged (arity n -> n) and costs nothing on any axis.
type VirtualDatasetCost struct {
	costBase
}

// NewVirtualDatasetCost builds the cost for a virtual dataset node passing
// numTensors tensors through.
func NewVirtualDatasetCost(numTensors int) *VirtualDatasetCost {
	return &VirtualDatasetCost{costBase: newCostBase(numTensors, numTensors)}
}

func (c *VirtualDatasetCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *VirtualDatasetCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *VirtualDatasetCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *VirtualDatasetCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// TmpIdentityCost models the identity nodes temporarily inserted while the
// planner rewrites the graph. No data crosses devices; the held slice is charged
// to forward memory.
type TmpIdentityCost struct {
	costBase
}

// NewTmpIdentityCost builds the cost for an identity pass-through (arity 1 -> 1).
func NewTmpIdentityCost() *TmpIdentityCost {
	return &TmpIdentityCost{costBase: newCostBase(1, 1)}
}

func (c *TmpIdentityCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *TmpIdentityCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *TmpIdentityCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.inputBytes(inputs, 0)
}

func (c *TmpIdentityCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

// BatchParallelCost models operators whose only valid sharding splits the
// replicated batch axis: each device works on its own batch slice, so forward
// and backward communication are 0 while memory is computed normally.
type BatchParallelCost struct {
	costBase
}

// NewBatchParallelCost builds the cost for a batch-parallel operator with the
// given arity.
func NewBatchParallelCost(numInputs, numOutputs int) *BatchParallelCost {
	return &BatchParallelCost{costBase: newCostBase(numInputs, numOutputs)}
}

func (c *BatchParallelCost) ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *BatchParallelCost) BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return 0
}

func (c *BatchParallelCost) ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.allInputBytes(inputs) + c.allOutputBytes(outputs)
}

func (c *BatchParallelCost) BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	c.checkArity(inputs, outputs)
	return c.parameterBytes(inputs)
}

var (
	_ OperatorCost = (*GeneratorCost)(nil)
	_ OperatorCost = (*GetNextCost)(nil)
	_ OperatorCost = (*VirtualDatasetCost)(nil)
	_ OperatorCost = (*TmpIdentityCost)(nil)
	_ OperatorCost = (*BatchParallelCost)(nil)
)
