// shardcost ranks candidate shard layouts for the dense layers of a toy MLP,
// using the costmodel package the strategy search queries. It exists to eyeball
// the cost model's preferences -- e.g. when model parallelism starts beating
// data parallelism as the weight matrices grow.
//
// Example:
//
//	shardcost --devices=8 --batch=64 --hidden=4096 --v=1
package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/autoshard/autoshard/costmodel"
	"github.com/autoshard/autoshard/layout"
	"github.com/autoshard/autoshard/types/shapes"
)

var (
	flagDevices = flag.Int("devices", 4, "Devices in the pipeline stage.")
	flagBatch   = flag.Int("batch", 32, "Batch size.")
	flagInput   = flag.Int("input", 512, "Input feature dimension.")
	flagHidden  = flag.Int("hidden", 1024, "Hidden layer dimension.")
	flagClasses = flag.Int("classes", 16, "Output classes.")
)

// candidate is one shard layout for a node, ready to be scored.
type candidate struct {
	name    string
	inputs  []layout.TensorInfo
	outputs []layout.TensorInfo

	comm, memory float64
}

// node pairs an operator's cost instance with its candidate layouts.
type node struct {
	name       string
	cost       costmodel.OperatorCost
	candidates []candidate
}

// denseCandidates enumerates the classic layouts of act[b,in] x weight[in,out]
// on d devices: batch-split, weight-column-split, and weight-row-split (the one
// that leaves a replicated partial result to all-reduce).
func denseCandidates(b, in, out, d int) []candidate {
	act := shapes.Make(dtypes.Float32, b, in)
	weight := shapes.Make(dtypes.Float32, in, out)
	res := shapes.Make(dtypes.Float32, b, out)

	return []candidate{
		{
			name:    "data-parallel",
			inputs:  []layout.TensorInfo{must.M1(layout.Split(act, 0, d)), must.M1(layout.Replicated(weight, d))},
			outputs: []layout.TensorInfo{must.M1(layout.Split(res, 0, d))},
		},
		{
			name:    "model-parallel/cols",
			inputs:  []layout.TensorInfo{must.M1(layout.Replicated(act, d)), must.M1(layout.Split(weight, 1, d))},
			outputs: []layout.TensorInfo{must.M1(layout.Split(res, 1, d))},
		},
		{
			name:    "model-parallel/rows",
			inputs:  []layout.TensorInfo{must.M1(layout.Split(act, 1, d)), must.M1(layout.Split(weight, 0, d))},
			outputs: []layout.TensorInfo{must.M1(layout.Replicated(res, d))},
		},
	}
}

// lossCandidates enumerates layouts for the mean loss reduction over the
// per-example losses.
func lossCandidates(b, d int) []candidate {
	perExample := shapes.Make(dtypes.Float32, b)
	scalar := shapes.Scalar(dtypes.Float32)

	return []candidate{
		{
			name:    "batch-split",
			inputs:  []layout.TensorInfo{must.M1(layout.Split(perExample, 0, d))},
			outputs: []layout.TensorInfo{must.M1(layout.Replicated(scalar, d))},
		},
		{
			name:    "replicated",
			inputs:  []layout.TensorInfo{must.M1(layout.Replicated(perExample, d))},
			outputs: []layout.TensorInfo{must.M1(layout.Replicated(scalar, d))},
		},
	}
}

func buildNodes(b, in, hidden, classes, d int) []node {
	dense1 := costmodel.NewMatMulCost()
	must.M(dense1.SetIsParameter([]bool{false, true}))
	dense2 := costmodel.NewMatMulCost()
	must.M(dense2.SetIsParameter([]bool{false, true}))

	// The mean over the batch axis is the cross-batch case: its gradient is
	// broadcast back over the batch shards.
	meanLoss := costmodel.NewReduceMeanCost()
	meanLoss.SetCrossBatch(true)

	return []node{
		{name: "dense1", cost: dense1, candidates: denseCandidates(b, in, hidden, d)},
		{name: "dense2", cost: dense2, candidates: denseCandidates(b, hidden, classes, d)},
		{name: "mean-loss", cost: meanLoss, candidates: lossCandidates(b, d)},
	}
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	d := *flagDevices
	nodes := buildNodes(*flagBatch, *flagInput, *flagHidden, *flagClasses, d)

	total := 0
	for _, n := range nodes {
		total += len(n.candidates)
	}
	klog.V(1).Infof("scoring %d candidate layouts over %d nodes on %d devices", total, len(nodes), d)

	bar := progressbar.Default(int64(total), "scoring")
	for ni := range nodes {
		n := &nodes[ni]
		for ci := range n.candidates {
			c := &n.candidates[ci]
			c.comm = costmodel.CommCost(n.cost, c.inputs, c.outputs, 0)
			c.memory = costmodel.MemoryCost(n.cost, c.inputs, c.outputs, 0)
			klog.V(2).Infof("%s/%s: comm=%.0f memory=%.0f", n.name, c.name, c.comm, c.memory)
			must.M(bar.Add(1))
		}
	}
	must.M(bar.Finish())

	for _, n := range nodes {
		// Rank by communication first -- the quantity the strategy search
		// minimizes -- with memory as tie-breaker.
		sort.Slice(n.candidates, func(i, j int) bool {
			a, b := n.candidates[i], n.candidates[j]
			if a.comm != b.comm {
				return a.comm < b.comm
			}
			return a.memory < b.memory
		})

		fmt.Printf("\n%s:\n", n.name)
		for rank, c := range n.candidates {
			fmt.Printf("  %d. %-20s comm=%-10s memory=%s\n",
				rank+1, c.name, humanize.Bytes(uint64(c.comm)), humanize.Bytes(uint64(c.memory)))
		}
	}
}
