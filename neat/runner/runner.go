// Package runner drives decoded networks through game environments to score
// genome fitness. It is the consumer side of the collaborator contracts: the
// external evolutionary algorithm hands over a population of genomes, an
// Environment supplies observation vectors and accepts actions, and the
// runner returns one scalar fitness per genome.
package runner

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/blockbrain/neat-tetris/neat"
	"github.com/blockbrain/neat-tetris/neat/nn"
)

// Environment is one playable episode source, typically a game board. The
// runner calls Reset, then alternates Observe and Step until Step reports the
// episode is done (or the tick cap is hit), then reads Fitness.
//
// Observe must return a vector whose length matches the genome's declared
// input count on every tick. The runner interprets network outputs by picking
// the index of the highest-scoring action; it assumes nothing else about what
// the values mean.
type Environment interface {
	// Reset puts the environment back into its initial state.
	Reset()
	// Observe returns the current input vector.
	Observe() []float64
	// Step applies the chosen action and reports whether the episode ended.
	Step(action int) (done bool)
	// Fitness returns the score accumulated since the last Reset.
	Fitness() float64
}

// Result is the outcome of evaluating a single genome. A non-nil Err marks
// the genome as fatal (it failed to decode or its environment produced a
// wrong-length observation); its Fitness is then zero. One bad genome never
// aborts the rest of the batch.
type Result struct {
	Fitness float64
	Err     error
}

// Evaluator scores populations of genomes against an environment.
//
// Evaluation is embarrassingly parallel: each worker decodes its own Network
// and creates its own Environment per genome, so workers share nothing but
// the read-only genome data.
type Evaluator struct {
	// Activation is the scalar function applied at every non-input node of
	// every decoded network.
	Activation neat.ActivationType
	// Workers is the number of concurrent evaluation goroutines.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
	// Episodes is how many episodes each genome plays; fitness is the mean
	// over episodes. Zero means one episode.
	Episodes int
	// MaxTicks caps the decision ticks per episode so a network that never
	// finishes a game still terminates. Zero means no cap.
	MaxTicks int
}

// NewEvaluator builds an Evaluator from a loaded configuration.
func NewEvaluator(config *neat.Config) (*Evaluator, error) {
	activation, err := config.ActivationFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve activation: %w", err)
	}
	return &Evaluator{
		Activation: activation,
		Workers:    config.Evaluation.NumWorkers,
		Episodes:   config.Evaluation.EpisodesPerGenome,
		MaxTicks:   config.Evaluation.MaxTicks,
	}, nil
}

// EvaluateAll scores every genome and returns results index-aligned with the
// input slice. newEnv is called once per genome per worker; the returned
// Environment is owned by that evaluation alone.
func (e *Evaluator) EvaluateAll(genomes []*neat.Genome, newEnv func() Environment) []Result {
	results := make([]Result, len(genomes))

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(genomes) {
		workers = len(genomes)
	}
	if workers <= 1 {
		for i, g := range genomes {
			results[i] = e.evaluate(g, newEnv())
		}
		return results
	}

	// Fan the genome indices out over a fixed worker pool. Each result slot
	// is written by exactly one worker, so the slice needs no lock.
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.evaluate(genomes[i], newEnv())
			}
		}()
	}
	for i := range genomes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// evaluate plays the configured number of episodes with one genome and
// returns its mean fitness.
func (e *Evaluator) evaluate(g *neat.Genome, env Environment) Result {
	net, err := nn.Decode(g, e.Activation)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to decode genome: %w", err)}
	}

	episodes := e.Episodes
	if episodes <= 0 {
		episodes = 1
	}

	scores := make([]float64, 0, episodes)
	for ep := 0; ep < episodes; ep++ {
		env.Reset()
		// Recurrent state must not leak between episodes.
		net.Reset()

		for tick := 0; e.MaxTicks <= 0 || tick < e.MaxTicks; tick++ {
			outputs, err := net.FeedForward(env.Observe())
			if err != nil {
				return Result{Err: fmt.Errorf("episode %d: %w", ep, err)}
			}
			if env.Step(argmax(outputs)) {
				break
			}
		}
		scores = append(scores, env.Fitness())
	}

	return Result{Fitness: neat.Mean(scores)}
}

// Summary aggregates a batch of results. Failed genomes are excluded from
// the statistics and counted separately.
type Summary struct {
	Evaluated int
	Failed    int
	Best      float64
	Mean      float64
	Median    float64
}

// Summarize computes population statistics over one EvaluateAll batch.
func Summarize(results []Result) Summary {
	scores := make([]float64, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		scores = append(scores, r.Fitness)
	}
	s := Summary{Evaluated: len(scores), Failed: failed}
	if len(scores) > 0 {
		s.Best = neat.MaxFloat(scores)
		s.Mean = neat.Mean(scores)
		s.Median = neat.Median(scores)
	}
	return s
}

// argmax returns the index of the highest value, preferring the lowest index
// on ties so action selection stays deterministic.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
