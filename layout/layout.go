// Package layout describes how one tensor is sharded over the devices of a
// pipeline stage under a candidate parallelization strategy.
//
// A TensorInfo pairs the tensor's logical (global) shape with the slice shape each
// device holds and the number of devices holding an identical copy of that slice.
// The strategy-search component builds one TensorInfo per tensor per candidate
// layout and feeds them to the costmodel package, which only ever reads them.
//
// TensorInfo is immutable after construction and safe to share across goroutines.
package layout

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/autoshard/autoshard/types/shapes"
	"github.com/autoshard/autoshard/types/xslices"
)

// TensorInfo is the read-only description of one tensor instance under one
// candidate shard assignment.
type TensorInfo struct {
	shape    shapes.Shape // logical (global) shape
	slice    shapes.Shape // per-device shard shape
	replicas int          // devices holding an identical copy of the slice, >= 1
}

// New builds a TensorInfo for a tensor of the given global shape whose per-device
// shard is slice, replicated over replicas devices.
//
// The slice must have the same rank and dtype as the global shape, and every slice
// dimension must evenly divide the corresponding global dimension. replicas must
// be >= 1.
func New(global, slice shapes.Shape, replicas int) (TensorInfo, error) {
	if !global.Ok() || !slice.Ok() {
		return TensorInfo{}, errors.Errorf("layout.New: invalid shape (global=%s, slice=%s)", global, slice)
	}
	if global.DType != slice.DType {
		return TensorInfo{}, errors.Errorf("layout.New: global dtype %s != slice dtype %s", global.DType, slice.DType)
	}
	if global.Rank() != slice.Rank() {
		return TensorInfo{}, errors.Errorf("layout.New: global rank %d != slice rank %d", global.Rank(), slice.Rank())
	}
	for axis := 0; axis < global.Rank(); axis++ {
		g, s := global.Dimensions[axis], slice.Dimensions[axis]
		if g%s != 0 {
			return TensorInfo{}, errors.Errorf(
				"layout.New: slice dimension %d of axis %d does not divide global dimension %d", s, axis, g)
		}
	}
	if replicas < 1 {
		return TensorInfo{}, errors.Errorf("layout.New: replicas must be >= 1, got %d", replicas)
	}
	return TensorInfo{shape: global.Clone(), slice: slice.Clone(), replicas: replicas}, nil
}

// Replicated builds a TensorInfo whose slice is the whole tensor, copied on every
// one of the replicas devices. This is the layout of an unsharded tensor under
// pure data parallelism.
func Replicated(global shapes.Shape, replicas int) (TensorInfo, error) {
	return New(global, global, replicas)
}

// Split builds a TensorInfo sharding the global shape ways-fold along the given
// axis, with no replication. The axis can be negative, counting from the end.
func Split(global shapes.Shape, axis, ways int) (TensorInfo, error) {
	if axis < 0 {
		axis += global.Rank()
	}
	if axis < 0 || axis >= global.Rank() {
		return TensorInfo{}, errors.Errorf("layout.Split: axis out-of-bounds for rank %d", global.Rank())
	}
	if ways < 1 || global.Dimensions[axis]%ways != 0 {
		return TensorInfo{}, errors.Errorf(
			"layout.Split: cannot split dimension %d of axis %d %d-ways", global.Dimensions[axis], axis, ways)
	}
	slice := global.Clone()
	slice.Dimensions[axis] /= ways
	return New(global, slice, 1)
}

// Shape returns the tensor's logical (global) shape.
func (t TensorInfo) Shape() shapes.Shape { return t.shape }

// Slice returns the shape of the shard each device holds.
func (t TensorInfo) Slice() shapes.Shape { return t.slice }

// Replicas returns the number of devices holding an identical copy of the slice.
func (t TensorInfo) Replicas() int { return t.replicas }

// Replicated returns whether more than one device holds the same slice. A
// replicated tensor is the one whose gradient accumulation requires an all-reduce
// across the replica group.
func (t TensorInfo) Replicated() bool { return t.replicas > 1 }

// NumShards returns how many distinct slices the global tensor is cut into.
func (t TensorInfo) NumShards() int {
	if t.slice.Size() == 0 {
		return 1
	}
	return t.shape.Size() / t.slice.Size()
}

// SliceElements returns the element count of the per-device slice as a float64,
// the size measure every cost formula is built from.
func (t TensorInfo) SliceElements() float64 {
	return float64(xslices.Product(t.slice.Dimensions))
}

// String implements fmt.Stringer.
func (t TensorInfo) String() string {
	return fmt.Sprintf("TensorInfo{shape=%s, slice=%s, replicas=%d}", t.shape, t.slice, t.replicas)
}
