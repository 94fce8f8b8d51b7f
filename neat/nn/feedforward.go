// Package nn decodes genomes into executable networks and runs forward
// propagation over them. It is the phenotype side of the NEAT split: the
// neat package describes networks, this package executes them.
package nn

import (
	"fmt"

	"github.com/blockbrain/neat-tetris/neat"
)

// InvalidGenomeError reports a connection gene whose endpoint lies outside
// the node-id range implied by the genome's declared counts. The genome is
// unusable; the evolutionary loop should discard or penalize the individual.
type InvalidGenomeError struct {
	GeneIndex int
	Gene      neat.ConnectionGene
	NumNodes  int
}

func (e *InvalidGenomeError) Error() string {
	return fmt.Sprintf("invalid genome: gene %d (%s) references a node outside [0, %d)",
		e.GeneIndex, e.Gene, e.NumNodes)
}

// InputLengthMismatchError reports a FeedForward call whose input vector does
// not match the network's input count. This is a programmer error; there is
// no partial output to recover.
type InputLengthMismatchError struct {
	Got  int
	Want int
}

func (e *InputLengthMismatchError) Error() string {
	return fmt.Sprintf("input length mismatch: got %d values, network has %d input nodes", e.Got, e.Want)
}

// NonInputNode is one decoded output or hidden node. The three source slices
// are index-aligned: position k pairs SourceNodeNums[k] with
// SourceNodeWeights[k] and SourceRecurrent[k].
//
// A recurrent source is one scheduled after this node in the evaluation
// order; at propagation time it reads the value left in the buffer by the
// previous FeedForward call (0.0 before the first call).
type NonInputNode struct {
	Number            int
	SourceNodeNums    []int
	SourceNodeWeights []float64
	SourceRecurrent   []bool
}

// Network is the executable phenotype decoded from a genome: the non-input
// nodes in evaluation order plus the value buffer holding every node's most
// recently computed value.
//
// The buffer persists across FeedForward calls; it is what gives recurrent
// connections their one-pass-stale semantics. Each Network owns its buffer
// exclusively, so independent Networks can be evaluated concurrently without
// any locking. A single Network is not safe for concurrent use.
type Network struct {
	NumInputs     int
	NumOutputs    int
	NonInputNodes []NonInputNode

	values     []float64
	activation neat.ActivationType
}

// Decode converts a genome into an executable Network using the given
// activation function at every non-input node.
//
// Decoding validates gene endpoints, discards disabled genes, groups the
// survivors by target node, and resolves a deterministic evaluation order: a
// variant of Kahn's topological sort that only counts dependencies on other
// non-input nodes (inputs are always ready) and breaks ties by ascending node
// number. When a cycle blocks progress, the unscheduled node with the
// smallest number is scheduled anyway and its unsatisfied incoming edges are
// marked recurrent. This terminates in at most NumOutputs+NumHidden steps for
// any genome, and on acyclic genomes degenerates to a plain topological sort.
func Decode(g *neat.Genome, activation neat.ActivationType) (*Network, error) {
	if activation == nil {
		return nil, fmt.Errorf("activation function must not be nil")
	}

	numNodes := g.NumNodes()
	for i, cg := range g.Genes {
		// Disabled genes are validated too: an out-of-range endpoint means
		// the genome's bookkeeping is broken, enabled or not.
		if cg.Source < 0 || cg.Source >= numNodes || cg.Target < 0 || cg.Target >= numNodes {
			return nil, &InvalidGenomeError{GeneIndex: i, Gene: cg, NumNodes: numNodes}
		}
	}

	// One candidate node per output/hidden id, even if nothing feeds it; its
	// activation then degenerates to activation(0).
	numNonInput := g.NumOutputs + g.NumHidden
	nodes := make([]NonInputNode, numNonInput)
	for i := range nodes {
		nodes[i].Number = g.NumInputs + i
	}

	// Group enabled genes by target, preserving the genes' relative order.
	// A duplicate (source, target) pair keeps its first list position but
	// takes the weight of the last gene encountered.
	sourcePos := make(map[[2]int]int, len(g.Genes))
	for _, cg := range g.Genes {
		if !cg.Enabled {
			continue
		}
		if g.IsInput(cg.Target) {
			// Nothing feeds an input node; the grouping has no slot for it.
			continue
		}
		node := &nodes[cg.Target-g.NumInputs]
		key := [2]int{cg.Source, cg.Target}
		if pos, ok := sourcePos[key]; ok {
			node.SourceNodeWeights[pos] = cg.Weight
			continue
		}
		sourcePos[key] = len(node.SourceNodeNums)
		node.SourceNodeNums = append(node.SourceNodeNums, cg.Source)
		node.SourceNodeWeights = append(node.SourceNodeWeights, cg.Weight)
		node.SourceRecurrent = append(node.SourceRecurrent, false)
	}

	// Dependency-aware scheduling pass.
	scheduled := make([]bool, numNonInput)
	order := make([]NonInputNode, 0, numNonInput)
	for len(order) < numNonInput {
		// Lowest-numbered node whose non-input sources are all scheduled.
		picked := -1
		for i := 0; i < numNonInput; i++ {
			if scheduled[i] {
				continue
			}
			ready := true
			for _, src := range nodes[i].SourceNodeNums {
				if src >= g.NumInputs && !scheduled[src-g.NumInputs] {
					ready = false
					break
				}
			}
			if ready {
				picked = i
				break
			}
		}

		if picked == -1 {
			// Cycle: force the lowest-numbered unscheduled node and mark its
			// unsatisfied edges recurrent. Those edges will read one-pass-stale
			// values at propagation time.
			for i := 0; i < numNonInput; i++ {
				if !scheduled[i] {
					picked = i
					break
				}
			}
			node := &nodes[picked]
			for k, src := range node.SourceNodeNums {
				if src >= g.NumInputs && !scheduled[src-g.NumInputs] {
					node.SourceRecurrent[k] = true
				}
			}
		}

		scheduled[picked] = true
		order = append(order, nodes[picked])
	}

	return &Network{
		NumInputs:     g.NumInputs,
		NumOutputs:    g.NumOutputs,
		NonInputNodes: order,
		values:        make([]float64, numNodes),
		activation:    activation,
	}, nil
}

// FeedForward runs one full propagation pass and returns the output values
// in ascending node-number order, regardless of where the scheduling pass
// placed the output nodes. The returned slice is freshly allocated; it does
// not alias the internal buffer.
//
// The result is a deterministic function of the inputs, the decoded
// structure, and whatever recurrent state previous calls left in the buffer.
// Callers needing history-free behavior should call Reset first.
func (net *Network) FeedForward(inputs []float64) ([]float64, error) {
	if len(inputs) != net.NumInputs {
		return nil, &InputLengthMismatchError{Got: len(inputs), Want: net.NumInputs}
	}

	copy(net.values[:net.NumInputs], inputs)

	for i := range net.NonInputNodes {
		node := &net.NonInputNodes[i]
		sum := 0.0
		for k, src := range node.SourceNodeNums {
			sum += node.SourceNodeWeights[k] * net.values[src]
		}
		net.values[node.Number] = net.activation(sum)
	}

	outputs := make([]float64, net.NumOutputs)
	copy(outputs, net.values[net.NumInputs:net.NumInputs+net.NumOutputs])
	return outputs, nil
}

// Reset zeroes the value buffer, discarding any recurrent state carried over
// from previous FeedForward calls.
func (net *Network) Reset() {
	for i := range net.values {
		net.values[i] = 0.0
	}
}
