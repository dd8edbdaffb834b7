package warehouse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datakite/olist-warehouse/pkg/enums"
)

// BuildContext carries everything a unit needs to render its SQL.
type BuildContext struct {
	Dialect Dialect
	// ReferenceDate anchors recency calculations (YYYY-MM-DD). It is the
	// dataset's end-of-coverage date so rebuilds are reproducible.
	ReferenceDate string
}

// Unit is one transformation step: a named relation defined by a SQL select
// over its upstream relations. Units never mutate their inputs.
type Unit struct {
	Name            string
	Layer           enums.Layer
	Materialization enums.Materialization
	// DependsOn lists upstream relation names: other units or raw tables.
	DependsOn []string
	// SQL renders the defining SELECT for the unit's relation.
	SQL func(BuildContext) string
}

func (u Unit) validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("unit name is required")
	}
	if !u.Layer.IsValid() {
		return fmt.Errorf("unit %s: invalid layer %q", u.Name, u.Layer)
	}
	if !u.Materialization.IsValid() {
		return fmt.Errorf("unit %s: invalid materialization %q", u.Name, u.Materialization)
	}
	if u.SQL == nil {
		return fmt.Errorf("unit %s: SQL builder is required", u.Name)
	}
	for _, dep := range u.DependsOn {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("unit %s: empty dependency name", u.Name)
		}
		if dep == u.Name {
			return fmt.Errorf("unit %s: depends on itself", u.Name)
		}
	}
	return nil
}

// Registry holds the unit set for a run, keyed by relation name.
type Registry struct {
	units map[string]Unit
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{units: map[string]Unit{}}
}

// Register adds units, rejecting duplicates and malformed definitions.
func (r *Registry) Register(units ...Unit) error {
	for _, unit := range units {
		if err := unit.validate(); err != nil {
			return err
		}
		if _, exists := r.units[unit.Name]; exists {
			return fmt.Errorf("unit %s already registered", unit.Name)
		}
		r.units[unit.Name] = unit
	}
	return nil
}

// Get returns the named unit.
func (r *Registry) Get(name string) (Unit, bool) {
	unit, ok := r.units[name]
	return unit, ok
}

// Has reports whether a unit produces the named relation.
func (r *Registry) Has(name string) bool {
	_, ok := r.units[name]
	return ok
}

// Names returns all registered unit names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered units.
func (r *Registry) Len() int {
	return len(r.units)
}
