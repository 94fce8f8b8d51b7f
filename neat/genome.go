package neat

import (
	"fmt"
	"strings"
)

// Genome is the declarative description of a network's shape: node counts
// plus an ordered list of connection genes.
//
// Node ids are dense non-negative integers under a fixed convention that is
// not stored per gene:
//
//	inputs  occupy [0, NumInputs)
//	outputs occupy [NumInputs, NumInputs+NumOutputs)
//	hidden  occupy [NumInputs+NumOutputs, NumInputs+NumOutputs+NumHidden)
//
// Disabled genes are retained (the external evolutionary algorithm needs them
// for its own bookkeeping) but contribute nothing to the decoded phenotype.
//
// A Genome is treated as immutable once handed to this package. Decoding
// never modifies it, so one Genome may be read by any number of concurrent
// decoders.
type Genome struct {
	NumInputs  int
	NumOutputs int
	NumHidden  int
	Genes      []ConnectionGene
}

// NumNodes returns the total node count implied by the declared sizes.
func (g *Genome) NumNodes() int {
	return g.NumInputs + g.NumOutputs + g.NumHidden
}

// IsInput reports whether the given node id falls in the input range.
func (g *Genome) IsInput(node int) bool {
	return node >= 0 && node < g.NumInputs
}

// NumEnabled returns the number of enabled connection genes.
func (g *Genome) NumEnabled() int {
	n := 0
	for _, cg := range g.Genes {
		if cg.Enabled {
			n++
		}
	}
	return n
}

// String returns a multi-line string representation of the Genome.
func (g *Genome) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Genome(Inputs: %d, Outputs: %d, Hidden: %d, Genes: %d)",
		g.NumInputs, g.NumOutputs, g.NumHidden, len(g.Genes))
	for _, cg := range g.Genes {
		sb.WriteString("\n  ")
		sb.WriteString(cg.String())
	}
	return sb.String()
}
