package costmodel

import (
	"sync"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoshard/autoshard/layout"
	"github.com/autoshard/autoshard/types/shapes"
)

func TestSourceVariantsAreFree(t *testing.T) {
	small := split(t, shapes.Make(dtypes.Float32, 8, 8), 0, 2)
	big := replicated(t, shapes.Make(dtypes.Float64, 1024, 1024), 16)

	testCases := []struct {
		name    string
		cost    OperatorCost
		inputs  []layout.TensorInfo
		outputs []layout.TensorInfo
	}{
		{"Generator/small", NewGeneratorCost(1), nil, []layout.TensorInfo{small}},
		{"Generator/big", NewGeneratorCost(2), nil, []layout.TensorInfo{big, big}},
		{"GetNext/small", NewGetNextCost(1), nil, []layout.TensorInfo{small}},
		{"GetNext/big", NewGetNextCost(2), nil, []layout.TensorInfo{big, small}},
		{"VirtualDataset/small", NewVirtualDatasetCost(1),
			[]layout.TensorInfo{small}, []layout.TensorInfo{small}},
		{"VirtualDataset/big", NewVirtualDatasetCost(2),
			[]layout.TensorInfo{big, big}, []layout.TensorInfo{big, big}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Zero(t, tc.cost.ForwardCommCost(tc.inputs, tc.outputs, 0))
			assert.Zero(t, tc.cost.BackwardCommCost(tc.inputs, tc.outputs, 0))
			assert.Zero(t, tc.cost.ForwardMemoryCost(tc.inputs, tc.outputs, 0))
			assert.Zero(t, tc.cost.BackwardMemoryCost(tc.inputs, tc.outputs, 0))
			assert.Zero(t, CommCost(tc.cost, tc.inputs, tc.outputs, 0))
			assert.Zero(t, MemoryCost(tc.cost, tc.inputs, tc.outputs, 0))
		})
	}
}

func TestBatchParallelCommFreeMemoryNot(t *testing.T) {
	c := NewBatchParallelCost(1, 1)
	small := split(t, shapes.Make(dtypes.Float32, 16, 8), 0, 4)
	big := split(t, shapes.Make(dtypes.Float32, 1024, 512), 0, 4)

	for _, info := range []layout.TensorInfo{small, big} {
		in, out := []layout.TensorInfo{info}, []layout.TensorInfo{info}
		assert.Zero(t, c.ForwardCommCost(in, out, 0))
		assert.Zero(t, c.BackwardCommCost(in, out, 0))
	}

	memSmall := MemoryCost(c, []layout.TensorInfo{small}, []layout.TensorInfo{small}, 0)
	memBig := MemoryCost(c, []layout.TensorInfo{big}, []layout.TensorInfo{big}, 0)
	assert.Greater(t, memBig, memSmall, "memory cost must scale with tensor size")
}

func TestReduceCrossBatchFlag(t *testing.T) {
	in := split(t, shapes.Make(dtypes.Float32, 32, 128), 1, 4)
	out := replicated(t, shapes.Make(dtypes.Float32, 32), 4)
	inputs, outputs := []layout.TensorInfo{in}, []layout.TensorInfo{out}

	c := NewReduceMethodCost()
	withinBatch := c.BackwardCommCost(inputs, outputs, 0)
	memWithin := MemoryCost(c, inputs, outputs, 0)

	c.SetCrossBatch(true)
	assert.True(t, c.CrossBatch())
	crossBatch := c.BackwardCommCost(inputs, outputs, 0)
	memCross := MemoryCost(c, inputs, outputs, 0)

	assert.NotEqual(t, withinBatch, crossBatch,
		"cross-batch must change the backward communication cost")
	// The input slice is 32x32 floats: the broadcast the cross-batch gradient pays.
	assert.InDelta(t, 32*32*4.0, crossBatch, 1e-9)
	assert.InDelta(t, memWithin, memCross, 1e-9,
		"cross-batch must not perturb memory formulas")
}

func TestReduceForwardAllReduce(t *testing.T) {
	c := NewReduceMethodCost()

	// Reducing a sharded axis: 4 input shards collapse to a replicated output,
	// paying an all-reduce of the output slice.
	in := split(t, shapes.Make(dtypes.Float32, 32, 128), 1, 4)
	out := replicated(t, shapes.Make(dtypes.Float32, 32), 4)
	assert.InDelta(t, 32*4.0, c.ForwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{out}, 0), 1e-9)

	// Reducing an unsharded axis keeps shard counts aligned: no exchange.
	in = split(t, shapes.Make(dtypes.Float32, 32, 128), 0, 4)
	out = split(t, shapes.Make(dtypes.Float32, 32), 0, 4)
	assert.Zero(t, c.ForwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{out}, 0))
}

func TestReduceMeanOverridesOnlyForwardMemory(t *testing.T) {
	in := split(t, shapes.Make(dtypes.Float32, 32, 128), 1, 4)
	out := replicated(t, shapes.Make(dtypes.Float32, 32), 4)
	inputs, outputs := []layout.TensorInfo{in}, []layout.TensorInfo{out}

	sum := NewReduceMethodCost()
	mean := NewReduceMeanCost()

	assert.Greater(t,
		mean.ForwardMemoryCost(inputs, outputs, 0),
		sum.ForwardMemoryCost(inputs, outputs, 0),
		"the mean reduction's forward memory divisor term differs from the plain sum")
	assert.Equal(t,
		sum.ForwardCommCost(inputs, outputs, 0),
		mean.ForwardCommCost(inputs, outputs, 0))
	assert.Equal(t,
		sum.BackwardCommCost(inputs, outputs, 0),
		mean.BackwardCommCost(inputs, outputs, 0))
	assert.Equal(t,
		sum.BackwardMemoryCost(inputs, outputs, 0),
		mean.BackwardMemoryCost(inputs, outputs, 0))

	// The cross-batch knob reaches the mean through the shared family.
	mean.SetCrossBatch(true)
	assert.InDelta(t, 32*32*4.0, mean.BackwardCommCost(inputs, outputs, 0), 1e-9)
}

func TestReshapeRedistribution(t *testing.T) {
	c := NewReshapeCost()

	// Same slice size and replication on both sides: a local reinterpretation.
	in := split(t, shapes.Make(dtypes.Float32, 32, 64), 0, 4)
	out := split(t, shapes.Make(dtypes.Float32, 2048), 0, 4)
	assert.Zero(t, c.ForwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{out}, 0))
	assert.Zero(t, c.BackwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{out}, 0))

	// Gathering the shards into a replicated tensor moves data both ways.
	outRepl := replicated(t, shapes.Make(dtypes.Float32, 2048), 4)
	assert.InDelta(t, 2048*4.0,
		c.ForwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{outRepl}, 0), 1e-9)
	assert.InDelta(t, 512*4.0,
		c.BackwardCommCost([]layout.TensorInfo{in}, []layout.TensorInfo{outRepl}, 0), 1e-9)
}

// TestMatMulEndToEnd walks the data-parallel dense layer: batch-split
// activation, replicated weight, batch-split output on a 4-device stage.
func TestMatMulEndToEnd(t *testing.T) {
	act, weight, out := denseFixtures(t)
	inputs, outputs := []layout.TensorInfo{act, weight}, []layout.TensorInfo{out}

	c := NewMatMulCost()
	require.NoError(t, c.SetIsParameter([]bool{false, true}))

	// Output is batch-split, so the forward pass exchanges nothing; the
	// replicated weight pays its gradient all-reduce: 64x128 floats.
	assert.Zero(t, c.ForwardCommCost(inputs, outputs, 0))
	assert.InDelta(t, 64*128*4.0, c.BackwardCommCost(inputs, outputs, 0), 1e-9)
	assert.InDelta(t, (8*64+64*128+8*128)*4.0, c.ForwardMemoryCost(inputs, outputs, 0), 1e-9)
	assert.InDelta(t, 64*128*4.0, c.BackwardMemoryCost(inputs, outputs, 0), 1e-9)

	assert.InDelta(t,
		c.ForwardCommCost(inputs, outputs, 0)+c.BackwardCommCost(inputs, outputs, 0),
		CommCost(c, inputs, outputs, 0), 1e-9)

	// Doubling every slice's element count (byte widths fixed) must double the
	// memory cost.
	act2 := split(t, shapes.Make(dtypes.Float32, 64, 64), 0, 4)
	weight2 := replicated(t, shapes.Make(dtypes.Float32, 64, 256), 4)
	out2 := split(t, shapes.Make(dtypes.Float32, 64, 128), 0, 4)
	assert.InDelta(t,
		2*MemoryCost(c, inputs, outputs, 0),
		MemoryCost(c, []layout.TensorInfo{act2, weight2}, []layout.TensorInfo{out2}, 0),
		1e-9)
}

// TestConcurrentQueries exercises the configure-then-publish contract: after
// configuration, one instance must serve queries from many goroutines. Run with
// -race to make this meaningful.
func TestConcurrentQueries(t *testing.T) {
	act, weight, out := denseFixtures(t)
	inputs, outputs := []layout.TensorInfo{act, weight}, []layout.TensorInfo{out}

	c := NewMatMulCost()
	require.NoError(t, c.SetIsParameter([]bool{false, true}))
	require.NoError(t, c.SetInputAndOutputTypeLength([]int{4, 4}, []int{4}))

	wantComm := CommCost(c, inputs, outputs, 0)
	wantMemory := MemoryCost(c, inputs, outputs, 0)

	const goroutines = 8
	const queries = 200
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < queries; i++ {
				if got := CommCost(c, inputs, outputs, 0); got != wantComm {
					t.Errorf("concurrent CommCost = %v, want %v", got, wantComm)
					return
				}
				if got := MemoryCost(c, inputs, outputs, 0); got != wantMemory {
					t.Errorf("concurrent MemoryCost = %v, want %v", got, wantMemory)
					return
				}
			}
		}()
	}
	wg.Wait()
}
