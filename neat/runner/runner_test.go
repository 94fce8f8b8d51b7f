package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockbrain/neat-tetris/neat"
	"github.com/blockbrain/neat-tetris/neat/nn"
)

// tickerEnv survives a fixed number of ticks per episode and scores one
// point per tick. It also records the actions it was given.
type tickerEnv struct {
	obs      []float64
	maxSteps int

	ticks   int
	actions []int
}

func (e *tickerEnv) Reset() {
	e.ticks = 0
	e.actions = nil
}

func (e *tickerEnv) Observe() []float64 { return e.obs }

func (e *tickerEnv) Step(action int) bool {
	e.actions = append(e.actions, action)
	e.ticks++
	return e.ticks >= e.maxSteps
}

func (e *tickerEnv) Fitness() float64 { return float64(e.ticks) }

// twoInGenome is a trivial 2-input, 2-output genome; output node 3 always
// dominates node 2 for positive first input.
func twoInGenome() *neat.Genome {
	return &neat.Genome{
		NumInputs:  2,
		NumOutputs: 2,
		Genes: []neat.ConnectionGene{
			{Source: 0, Target: 2, Weight: 1, Enabled: true},
			{Source: 0, Target: 3, Weight: 2, Enabled: true},
		},
	}
}

func TestEvaluateAllScoresEveryGenome(t *testing.T) {
	genomes := make([]*neat.Genome, 20)
	for i := range genomes {
		genomes[i] = twoInGenome()
	}

	e := &Evaluator{Activation: neat.Identity, Workers: 5}
	results := e.EvaluateAll(genomes, func() Environment {
		return &tickerEnv{obs: []float64{1, 0}, maxSteps: 7}
	})

	require.Len(t, results, len(genomes))
	for i, r := range results {
		require.NoError(t, r.Err, "genome %d", i)
		assert.Equal(t, 7.0, r.Fitness, "genome %d", i)
	}
}

func TestEvaluateAllIsDeterministic(t *testing.T) {
	genomes := make([]*neat.Genome, 16)
	for i := range genomes {
		g := twoInGenome()
		g.Genes[0].Weight = float64(i) // vary structure a little
		genomes[i] = g
	}
	newEnv := func() Environment {
		return &tickerEnv{obs: []float64{0.5, -0.5}, maxSteps: 5}
	}

	e := &Evaluator{Activation: neat.Sigmoid, Workers: 4, Episodes: 2}
	first := e.EvaluateAll(genomes, newEnv)
	second := e.EvaluateAll(genomes, newEnv)
	assert.Equal(t, first, second)
}

func TestEvaluateSelectsHighestScoringAction(t *testing.T) {
	env := &tickerEnv{obs: []float64{1, 0}, maxSteps: 4}
	e := &Evaluator{Activation: neat.Identity, Workers: 1}

	results := e.EvaluateAll([]*neat.Genome{twoInGenome()}, func() Environment { return env })
	require.NoError(t, results[0].Err)

	// Output node 3 sees weight 2 on input 0, node 2 sees weight 1, so the
	// argmax action is index 1 on every tick.
	require.Len(t, env.actions, 4)
	for _, action := range env.actions {
		assert.Equal(t, 1, action)
	}
}

func TestEvaluateInvalidGenomeDoesNotAbortBatch(t *testing.T) {
	bad := &neat.Genome{
		NumInputs:  2,
		NumOutputs: 2,
		Genes:      []neat.ConnectionGene{{Source: 99, Target: 2, Weight: 1, Enabled: true}},
	}
	genomes := []*neat.Genome{twoInGenome(), bad, twoInGenome()}

	e := &Evaluator{Activation: neat.Sigmoid, Workers: 2}
	results := e.EvaluateAll(genomes, func() Environment {
		return &tickerEnv{obs: []float64{0, 0}, maxSteps: 3}
	})

	require.NoError(t, results[0].Err)
	require.NoError(t, results[2].Err)

	require.Error(t, results[1].Err)
	var invalid *nn.InvalidGenomeError
	assert.True(t, errors.As(results[1].Err, &invalid))
	assert.Equal(t, 0.0, results[1].Fitness)
}

func TestEvaluateReportsObservationLengthMismatch(t *testing.T) {
	e := &Evaluator{Activation: neat.Sigmoid, Workers: 1}
	results := e.EvaluateAll([]*neat.Genome{twoInGenome()}, func() Environment {
		return &tickerEnv{obs: []float64{1, 2, 3}, maxSteps: 3} // genome has 2 inputs
	})

	require.Error(t, results[0].Err)
	var mismatch *nn.InputLengthMismatchError
	assert.True(t, errors.As(results[0].Err, &mismatch))
}

// episodeCountingEnv scores its episode index, so mean fitness over episodes
// is observable.
type episodeCountingEnv struct {
	tickerEnv
	episode int
}

func (e *episodeCountingEnv) Reset() {
	e.tickerEnv.Reset()
	e.episode++
}

func (e *episodeCountingEnv) Fitness() float64 { return float64(e.episode) }

func TestEvaluateAveragesOverEpisodes(t *testing.T) {
	e := &Evaluator{Activation: neat.Sigmoid, Workers: 1, Episodes: 3}
	results := e.EvaluateAll([]*neat.Genome{twoInGenome()}, func() Environment {
		return &episodeCountingEnv{tickerEnv: tickerEnv{obs: []float64{0, 0}, maxSteps: 1}}
	})

	require.NoError(t, results[0].Err)
	// Episodes score 1, 2, 3; mean is 2.
	assert.InDelta(t, 2.0, results[0].Fitness, 1e-12)
}

func TestEvaluateMaxTicksCapsEpisodes(t *testing.T) {
	e := &Evaluator{Activation: neat.Sigmoid, Workers: 1, MaxTicks: 5}
	results := e.EvaluateAll([]*neat.Genome{twoInGenome()}, func() Environment {
		// The environment would happily run forever.
		return &tickerEnv{obs: []float64{0, 0}, maxSteps: 1 << 30}
	})

	require.NoError(t, results[0].Err)
	assert.Equal(t, 5.0, results[0].Fitness)
}

func TestNewEvaluatorFromConfig(t *testing.T) {
	config := &neat.Config{
		Phenotype:  neat.PhenotypeConfig{Activation: "tanh"},
		Genome:     neat.GenomeConfig{NumInputs: 2, NumOutputs: 2},
		Evaluation: neat.EvaluationConfig{NumWorkers: 3, EpisodesPerGenome: 2, MaxTicks: 50},
	}
	e, err := NewEvaluator(config)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Workers)
	assert.Equal(t, 2, e.Episodes)
	assert.Equal(t, 50, e.MaxTicks)
	assert.InDelta(t, neat.Tanh(0.3), e.Activation(0.3), 1e-12)

	config.Phenotype.Activation = "nope"
	_, err = NewEvaluator(config)
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{Fitness: 4},
		{Err: errors.New("fatal genome")},
		{Fitness: 10},
		{Fitness: 1},
	}
	s := Summarize(results)
	assert.Equal(t, 3, s.Evaluated)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 10.0, s.Best)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.Equal(t, 4.0, s.Median)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Evaluated)
	assert.Equal(t, 0.0, empty.Best)
}

func TestArgmaxPrefersLowestIndexOnTies(t *testing.T) {
	assert.Equal(t, 0, argmax([]float64{1, 1, 1}))
	assert.Equal(t, 2, argmax([]float64{0, 0.5, 2, 2}))
	assert.Equal(t, 0, argmax([]float64{5}))
}
