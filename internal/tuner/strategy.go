package tuner

import (
	"math/rand"

	"github.com/archon-ml/archon/internal/graph"
)

func randomAssignment(space []graph.HyperParam, rng *rand.Rand) map[string]float64 {
	params := make(map[string]float64, len(space))
	for _, p := range space {
		params[p.Name] = p.Options[rng.Intn(len(p.Options))]
	}
	return params
}

// mutate copies an assignment and re-samples the chosen parameters.
func mutate(base map[string]float64, space []graph.HyperParam, rng *rand.Rand, prob float64) map[string]float64 {
	params := make(map[string]float64, len(space))
	for _, p := range space {
		v, ok := base[p.Name]
		if !ok || rng.Float64() < prob {
			v = p.Options[rng.Intn(len(p.Options))]
		}
		params[p.Name] = v
	}
	return params
}

// randomStrategy samples every trial uniformly from the space.
type randomStrategy struct{}

func (*randomStrategy) propose(space []graph.HyperParam, _ []Trial, _ *Trial, rng *rand.Rand) map[string]float64 {
	return randomAssignment(space, rng)
}

func (*randomStrategy) trialEpochs(_, epochs int) int { return epochs }

// greedyStrategy hill-climbs: it perturbs one parameter of the current
// best assignment, falling back to uniform sampling until a best exists.
type greedyStrategy struct{}

func (*greedyStrategy) propose(space []graph.HyperParam, _ []Trial, best *Trial, rng *rand.Rand) map[string]float64 {
	if best == nil || len(space) == 0 {
		return randomAssignment(space, rng)
	}
	params := mutate(best.Params, space, rng, 0)
	p := space[rng.Intn(len(space))]
	params[p.Name] = p.Options[rng.Intn(len(p.Options))]
	return params
}

func (*greedyStrategy) trialEpochs(_, epochs int) int { return epochs }

// bayesianStrategy explores uniformly for a warm-up phase, then exploits
// the incumbent with a moderate per-parameter resampling probability — a
// cheap stand-in for a surrogate model that still concentrates trials
// near good assignments.
type bayesianStrategy struct{}

func (*bayesianStrategy) propose(space []graph.HyperParam, history []Trial, best *Trial, rng *rand.Rand) map[string]float64 {
	if best == nil || len(history) < 3 {
		return randomAssignment(space, rng)
	}
	return mutate(best.Params, space, rng, 0.4)
}

func (*bayesianStrategy) trialEpochs(_, epochs int) int { return epochs }

// hyperbandStrategy samples uniformly but cycles trials through
// successive budget brackets, spending the full epoch budget only on
// every third candidate.
type hyperbandStrategy struct{}

func (*hyperbandStrategy) propose(space []graph.HyperParam, _ []Trial, _ *Trial, rng *rand.Rand) map[string]float64 {
	return randomAssignment(space, rng)
}

func (*hyperbandStrategy) trialEpochs(trialIndex, epochs int) int {
	switch trialIndex % 3 {
	case 0:
		return max(1, epochs/4)
	case 1:
		return max(1, epochs/2)
	default:
		return epochs
	}
}
