package neat

import "fmt"

// ConnectionGene represents one weighted, enable-flagged edge in a genome.
//
// Source and Target are node ids under the genome's dense-id convention (see
// Genome). A gene carries no guarantee that its endpoints are valid; that is
// checked at decode time, once the owning genome's node count is known.
//
// LineageID is the innovation number assigned by the external evolutionary
// algorithm. The decoder ignores it entirely; it is carried so that a genome
// round-trips through this package without losing the trainer's bookkeeping.
type ConnectionGene struct {
	Source    int
	Target    int
	Weight    float64
	Enabled   bool
	LineageID int
}

// String returns a string representation of the ConnectionGene.
func (cg ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(%d->%d, Weight: %.3f, Enabled: %t, Lineage: %d)",
		cg.Source, cg.Target, cg.Weight, cg.Enabled, cg.LineageID)
}
