package warehouse

import (
	"sort"
	"strings"

	pkgerrors "github.com/datakite/olist-warehouse/pkg/errors"
)

// TopoSort orders the registered units so every unit runs after its upstream
// units. Dependencies on relations outside the registry (raw tables) do not
// order anything; they are checked for existence at run time. Ready units are
// taken in lexicographic order so the schedule is deterministic.
func TopoSort(reg *Registry) ([]string, error) {
	indegree := map[string]int{}
	dependents := map[string][]string{}

	for _, name := range reg.Names() {
		unit, _ := reg.Get(name)
		indegree[name] = 0
		for _, dep := range unit.DependsOn {
			if !reg.Has(dep) {
				continue
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := make([]string, 0, len(indegree))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, reg.Len())
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		unlocked := []string{}
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				unlocked = append(unlocked, dependent)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) != reg.Len() {
		stuck := []string{}
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, pkgerrors.New(pkgerrors.CodeDependencyCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

// Closure expands a selection to include every transitive upstream unit, so a
// partial build always runs from consistent inputs. An unknown name fails the
// whole selection.
func Closure(reg *Registry, selected []string) (map[string]bool, error) {
	include := map[string]bool{}
	queue := make([]string, 0, len(selected))

	for _, name := range selected {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if !reg.Has(trimmed) {
			return nil, pkgerrors.New(pkgerrors.CodeUnknownUnit, trimmed)
		}
		queue = append(queue, trimmed)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if include[name] {
			continue
		}
		include[name] = true

		unit, _ := reg.Get(name)
		for _, dep := range unit.DependsOn {
			if reg.Has(dep) && !include[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return include, nil
}

// Dependents returns every unit transitively downstream of name. Used to skip
// the rest of a failed branch while independent branches keep building.
func Dependents(reg *Registry, name string) map[string]bool {
	direct := map[string][]string{}
	for _, unitName := range reg.Names() {
		unit, _ := reg.Get(unitName)
		for _, dep := range unit.DependsOn {
			direct[dep] = append(direct[dep], unitName)
		}
	}

	downstream := map[string]bool{}
	queue := append([]string{}, direct[name]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if downstream[next] {
			continue
		}
		downstream[next] = true
		queue = append(queue, direct[next]...)
	}
	return downstream
}
