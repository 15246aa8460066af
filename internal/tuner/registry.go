package tuner

import (
	"fmt"
	"sort"
)

// UnknownTunerError reports a tuner selection outside the supported set.
type UnknownTunerError struct {
	Name string
}

func (e *UnknownTunerError) Error() string {
	return fmt.Sprintf("tuner: unknown tuner %q, expected one of %q, %q, %q, %q",
		e.Name, "greedy", "random", "hyperband", "bayesian")
}

// Factory constructs a tuner from pass-through options.
type Factory func(opts Options) (Tuner, error)

var factories = map[string]Factory{
	"greedy":    func(opts Options) (Tuner, error) { return newSearchTuner(opts, &greedyStrategy{}) },
	"random":    func(opts Options) (Tuner, error) { return newSearchTuner(opts, &randomStrategy{}) },
	"hyperband": func(opts Options) (Tuner, error) { return newSearchTuner(opts, &hyperbandStrategy{}) },
	"bayesian":  func(opts Options) (Tuner, error) { return newSearchTuner(opts, &bayesianStrategy{}) },
}

// Names returns the supported tuner names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs one of the bundled tuners by name.
func New(name string, opts Options) (Tuner, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, &UnknownTunerError{Name: name}
	}
	return factory(opts)
}
