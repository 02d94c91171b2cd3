// Package costmodel estimates, per operator of a tensor dataflow graph, the
// per-device communication and memory cost implied by a candidate shard layout.
//
// The strategy-search component enumerates candidate layouts for every operator
// and ranks them by querying this package. One cost instance is built per graph
// node, selected by the node's operator category (MatMul, Activation, Reduce...),
// optionally configured once, and then queried once per candidate layout.
//
// Every operator category implements the same four primitives -- forward and
// backward communication cost, forward and backward memory cost -- even when some
// of them are the constant 0 (data sources have no backward pass, batch-parallel
// pass-throughs exchange nothing between devices). The derived totals are always
// the sum of the forward and backward parts; see CommCost and MemoryCost.
//
// All costs are expressed in bytes of data movement or footprint: element counts
// of the per-device slices (see the layout package) scaled by the configured
// per-element byte widths.
//
// Concurrency: configuration (SetIsParameter, SetInputAndOutputTypeLength,
// ReduceMethodCost.SetCrossBatch) must complete before an instance is shared.
// After that, every query is a pure function of the configuration and its
// arguments, so a single instance can be queried from any number of goroutines.
package costmodel

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/autoshard/autoshard/layout"
	"github.com/autoshard/autoshard/types/xslices"
)

// DefaultTypeLength is the byte width assumed for every input and output slot
// until SetInputAndOutputTypeLength configures it -- the width of a 32-bit float.
const DefaultTypeLength = 4

// OperatorCost is the capability every operator cost variant implements.
//
// The four cost primitives are pure: they never mutate the instance, block, or
// allocate beyond the call frame, and each runs in O(len(inputs)+len(outputs)).
// They panic (with an exceptions.Panicf error) when called with a number of
// descriptors different from the operator's arity; the configuration setters,
// called by the graph-builder before publishing the instance, return errors
// instead.
//
// stageID identifies the pipeline-parallel stage the operator is assigned to. It
// is threaded through to the formulas and never interpreted by this package.
type OperatorCost interface {
	// SetIsParameter replaces the trainable-parameter classification of inputs
	// 0..len(isParameter)-1. Unmentioned slots keep their previous value
	// (initially false). Parameters are costed differently from per-step
	// activations: they alone contribute backward memory, and their gradient
	// all-reduce is what backward communication formulas charge for.
	SetIsParameter(isParameter []bool) error

	// SetInputAndOutputTypeLength replaces the per-element byte width of inputs
	// 0..len(inputLengths)-1 and outputs 0..len(outputLengths)-1. Unmentioned
	// slots keep their previous value (initially DefaultTypeLength).
	SetInputAndOutputTypeLength(inputLengths, outputLengths []int) error

	// NumInputs and NumOutputs report the operator arity the instance was built
	// for. Every query must pass exactly that many descriptors.
	NumInputs() int
	NumOutputs() int

	// ForwardCommCost estimates the bytes exchanged between devices during the
	// forward pass to realize the candidate layout described by inputs/outputs.
	ForwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64

	// BackwardCommCost estimates the bytes exchanged during the gradient pass,
	// typically the all-reduce of replicated parameter gradients.
	BackwardCommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64

	// ForwardMemoryCost estimates the per-device footprint of the operator's
	// slices during the forward pass.
	ForwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64

	// BackwardMemoryCost estimates the additional per-device footprint of the
	// gradient pass.
	BackwardMemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64
}

// TotalCommOverrider lets a variant replace the additive total returned by
// CommCost. No variant in this package implements it: the additive decomposition
// is the contract's central invariant, and an override needs a documented domain
// reason.
type TotalCommOverrider interface {
	CommCost(inputs, outputs []layout.TensorInfo, stageID int32) float64
}

// TotalMemoryOverrider is the memory counterpart of TotalCommOverrider.
type TotalMemoryOverrider interface {
	MemoryCost(inputs, outputs []layout.TensorInfo, stageID int32) float64
}

// CommCost returns the total communication cost of one candidate layout:
// forward plus backward, unless the variant explicitly overrides the total.
func CommCost(c OperatorCost, inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	if o, ok := c.(TotalCommOverrider); ok {
		return o.CommCost(inputs, outputs, stageID)
	}
	return c.ForwardCommCost(inputs, outputs, stageID) + c.BackwardCommCost(inputs, outputs, stageID)
}

// MemoryCost returns the total memory cost of one candidate layout: forward plus
// backward, unless the variant explicitly overrides the total.
func MemoryCost(c OperatorCost, inputs, outputs []layout.TensorInfo, stageID int32) float64 {
	if o, ok := c.(TotalMemoryOverrider); ok {
		return o.MemoryCost(inputs, outputs, stageID)
	}
	return c.ForwardMemoryCost(inputs, outputs, stageID) + c.BackwardMemoryCost(inputs, outputs, stageID)
}

// costBase carries the per-instance configuration shared by every variant:
// operator arity, trainable-parameter flags and per-slot byte widths. Variants
// embed it and build their formulas from its byte-accounting helpers.
type costBase struct {
	numInputs, numOutputs int

	isParameter   []bool
	inputLengths  []int
	outputLengths []int
}

func newCostBase(numInputs, numOutputs int) costBase {
	return costBase{
		numInputs:     numInputs,
		numOutputs:    numOutputs,
		isParameter:   make([]bool, numInputs),
		inputLengths:  xslices.FillWith(DefaultTypeLength, numInputs),
		outputLengths: xslices.FillWith(DefaultTypeLength, numOutputs),
	}
}

// NumInputs reports the operator's input arity.
func (c *costBase) NumInputs() int { return c.numInputs }

// NumOutputs reports the operator's output arity.
func (c *costBase) NumOutputs() int { return c.numOutputs }

// SetIsParameter implements OperatorCost.
func (c *costBase) SetIsParameter(isParameter []bool) error {
	if len(isParameter) > c.numInputs {
		return errors.Errorf(
			"SetIsParameter: %d flags for an operator with %d inputs", len(isParameter), c.numInputs)
	}
	copy(c.isParameter, isParameter)
	return nil
}

// SetInputAndOutputTypeLength implements OperatorCost. On error no slot is
// modified.
func (c *costBase) SetInputAndOutputTypeLength(inputLengths, outputLengths []int) error {
	if len(inputLengths) > c.numInputs {
		return errors.Errorf(
			"SetInputAndOutputTypeLength: %d input widths for an operator with %d inputs",
			len(inputLengths), c.numInputs)
	}
	if len(outputLengths) > c.numOutputs {
		return errors.Errorf(
			"SetInputAndOutputTypeLength: %d output widths for an operator with %d outputs",
			len(outputLengths), c.numOutputs)
	}
	for _, length := range inputLengths {
		if length <= 0 {
			return errors.Errorf("SetInputAndOutputTypeLength: invalid input byte width %d", length)
		}
	}
	for _, length := range outputLengths {
		if length <= 0 {
			return errors.Errorf("SetInputAndOutputTypeLength: invalid output byte width %d", length)
		}
	}
	copy(c.inputLengths, inputLengths)
	copy(c.outputLengths, outputLengths)
	klog.V(2).Infof("costmodel: type lengths configured to in=%v out=%v", c.inputLengths, c.outputLengths)
	return nil
}

// InputTypeLengths returns a copy of the configured per-input byte widths.
func (c *costBase) InputTypeLengths() []int {
	return append([]int(nil), c.inputLengths...)
}

// OutputTypeLengths returns a copy of the configured per-output byte widths.
func (c *costBase) OutputTypeLengths() []int {
	return append([]int(nil), c.outputLengths...)
}

// IsParameter returns a copy of the per-input trainable-parameter flags.
func (c *costBase) IsParameter() []bool {
	return append([]bool(nil), c.isParameter...)
}

// checkArity panics unless the query carries exactly the operator's arity. Wrong
// arity is a usage error of the calling planner, not a recoverable condition.
func (c *costBase) checkArity(inputs, outputs []layout.TensorInfo) {
	if len(inputs) != c.numInputs || len(outputs) != c.numOutputs {
		exceptions.Panicf(
			"cost query with %d inputs and %d outputs on an operator expecting %d and %d",
			len(inputs), len(outputs), c.numInputs, c.numOutputs)
	}
}

// inputBytes is the per-device byte size of input slot i's slice.
func (c *costBase) inputBytes(inputs []layout.TensorInfo, i int) float64 {
	return inputs[i].SliceElements() * float64(c.inputLengths[i])
}

// outputBytes is the per-device byte size of output slot i's slice.
func (c *costBase) outputBytes(outputs []layout.TensorInfo, i int) float64 {
	return outputs[i].SliceElements() * float64(c.outputLengths[i])
}

func (c *costBase) allInputBytes(inputs []layout.TensorInfo) (sum float64) {
	for i := range inputs {
		sum += c.inputBytes(inputs, i)
	}
	return
}

func (c *costBase) allOutputBytes(outputs []layout.TensorInfo) (sum float64) {
	for i := range outputs {
		sum += c.outputBytes(outputs, i)
	}
	return
}

// parameterBytes sums the slice bytes of the inputs classified as trainable
// parameters: the footprint charged to the backward pass.
func (c *costBase) parameterBytes(inputs []layout.TensorInfo) (sum float64) {
	for i := range inputs {
		if c.isParameter[i] {
			sum += c.inputBytes(inputs, i)
		}
	}
	return
}

// replicatedParameterBytes sums the slice bytes of parameter inputs replicated
// over more than one device: the volume their gradient all-reduce must move.
func (c *costBase) replicatedParameterBytes(inputs []layout.TensorInfo) (sum float64) {
	for i := range inputs {
		if c.isParameter[i] && inputs[i].Replicated() {
			sum += c.inputBytes(inputs, i)
		}
	}
	return
}
