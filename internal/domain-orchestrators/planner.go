package orchestrators

import (
	"sort"

	"coreforge/internal/domain/entities"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// PlanStages orders bundles for building. The result is a list of stages:
// every bundle in a stage has all of its depends_on bundles in earlier
// stages, so bundles within one stage can build concurrently. Bundle names
// inside a stage are sorted for deterministic plans.
func PlanStages(bundles []*entities.ServiceBundle) ([][]string, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	byName := make(map[string]*entities.ServiceBundle, len(bundles))
	for _, b := range bundles {
		if err := g.AddVertex(b.Name); err != nil {
			return nil, errors.Wrapf(err, "failed to add bundle %s to build graph", b.Name)
		}
		byName[b.Name] = b
	}

	for _, b := range bundles {
		for _, dep := range b.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, errors.Errorf("bundle %s depends on unknown bundle %s", b.Name, dep)
			}
			if err := g.AddEdge(dep, b.Name); err != nil {
				if errors.Is(err, graph.ErrEdgeCreatesCycle) {
					return nil, errors.Errorf("dependency cycle between %s and %s", dep, b.Name)
				}
				return nil, errors.Wrapf(err, "failed to add dependency %s -> %s", dep, b.Name)
			}
		}
	}

	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute build order")
	}

	// Peel off levels: a bundle is ready once all of its predecessors have
	// been planned into an earlier stage.
	planned := make(map[string]bool, len(bundles))
	var stages [][]string

	for len(planned) < len(bundles) {
		var stage []string
		for name, preds := range predecessors {
			if planned[name] {
				continue
			}
			ready := true
			for pred := range preds {
				if !planned[pred] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, name)
			}
		}

		if len(stage) == 0 {
			// PreventCycles should make this unreachable
			return nil, errors.New("build plan stalled: remaining bundles form a cycle")
		}

		sort.Strings(stage)
		for _, name := range stage {
			planned[name] = true
		}
		stages = append(stages, stage)
	}

	return stages, nil
}
