// Package neat provides the genome-decoding and network-evaluation core of a
// NEAT (NeuroEvolution of Augmenting Topologies) driven game player.
//
// The package consumes finished genomes (variable-topology, possibly cyclic
// genetic encodings produced by an external evolutionary algorithm) and turns
// them into executable networks with a fixed, deterministic evaluation order.
// Mutation, crossover, speciation and the game environment itself are
// deliberately outside this module; they interact with it only through the
// Genome type, the nn.Decode function, and the runner.Environment interface.
//
// Basic usage:
//
//	// Describe a network: 2 inputs, 1 output, one enabled connection 0->2.
//	genome := &neat.Genome{
//		NumInputs:  2,
//		NumOutputs: 1,
//		Genes: []neat.ConnectionGene{
//			{Source: 0, Target: 2, Weight: 0.5, Enabled: true},
//		},
//	}
//
//	// Decode it into an executable phenotype.
//	net, err := nn.Decode(genome, neat.Sigmoid)
//	if err != nil {
//		log.Fatalf("decode failed: %v", err)
//	}
//
//	// Run one propagation pass per decision tick.
//	outputs, err := net.FeedForward([]float64{1.0, 0.25})
//	if err != nil {
//		log.Fatalf("feedforward failed: %v", err)
//	}
//	fmt.Println(outputs)
package neat
