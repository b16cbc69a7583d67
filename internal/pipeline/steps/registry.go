// Package steps provides step definitions and dependency validation for the
// company extraction pipeline.
package steps

import (
	"fmt"
	"sort"
)

// Step categories
const (
	CategoryCapture   = "capture"
	CategoryExtract   = "extract"
	CategoryPartition = "partition"
	CategoryPersist   = "persist"
)

// Step names
const (
	StepAcquireForest = "acquire_forest"
	StepLocate        = "locate"
	StepNormalize     = "normalize"
	StepWriteExtract  = "write_extract"
	StepExportJSON    = "export_json"
	StepReingest      = "reingest"
	StepPartition     = "partition"
	StepWriteSectors  = "write_sectors"
	StepPersist       = "persist"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	StepAcquireForest: {
		Name:         StepAcquireForest,
		Category:     CategoryCapture,
		Dependencies: []string{},
		Optional:     []string{},
	},
	StepLocate: {
		Name:         StepLocate,
		Category:     CategoryExtract,
		Dependencies: []string{StepAcquireForest},
		Optional:     []string{},
	},
	StepNormalize: {
		Name:         StepNormalize,
		Category:     CategoryExtract,
		Dependencies: []string{StepLocate},
		Optional:     []string{},
	},
	StepWriteExtract: {
		Name:         StepWriteExtract,
		Category:     CategoryExtract,
		Dependencies: []string{StepNormalize},
		Optional:     []string{},
	},
	StepExportJSON: {
		Name:         StepExportJSON,
		Category:     CategoryExtract,
		Dependencies: []string{StepNormalize},
		Optional:     []string{},
	},
	StepReingest: {
		Name:         StepReingest,
		Category:     CategoryPartition,
		Dependencies: []string{StepWriteExtract},
		Optional:     []string{},
	},
	StepPartition: {
		Name:         StepPartition,
		Category:     CategoryPartition,
		Dependencies: []string{StepReingest},
		Optional:     []string{},
	},
	StepWriteSectors: {
		Name:         StepWriteSectors,
		Category:     CategoryPartition,
		Dependencies: []string{StepPartition},
		Optional:     []string{},
	},
	StepPersist: {
		Name:         StepPersist,
		Category:     CategoryPersist,
		Dependencies: []string{StepNormalize, StepPartition},
		Optional:     []string{StepWriteSectors, StepExportJSON},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s has missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// GetAvailableSteps returns steps that can be executed (dependencies met), sorted by name
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for stepName := range StepRegistry {
		if completed[stepName] {
			continue
		}
		if err := ValidateDependencies(completed, stepName); err != nil {
			continue
		}
		available = append(available, stepName)
	}
	sort.Strings(available)
	return available
}

// GetBlockedSteps returns steps that are blocked (dependencies not met), sorted by name
func GetBlockedSteps(completed map[string]bool) []string {
	var blocked []string
	for stepName := range StepRegistry {
		if completed[stepName] {
			continue
		}
		if err := ValidateDependencies(completed, stepName); err != nil {
			blocked = append(blocked, stepName)
		}
	}
	sort.Strings(blocked)
	return blocked
}

// Order returns every registered step so that each comes after its required
// and optional dependencies. Ties are broken by name.
func Order() ([]string, error) {
	indegree := make(map[string]int, len(StepRegistry))
	dependents := make(map[string][]string)
	for name, def := range StepRegistry {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, dep := range append(append([]string{}, def.Dependencies...), def.Optional...) {
			if _, ok := StepRegistry[dep]; !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %s", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(StepRegistry))
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, d := range dependents[next] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(StepRegistry) {
		return nil, fmt.Errorf("step registry has a dependency cycle")
	}
	return order, nil
}

// Tracker records completed steps during one run and refuses to start a step
// whose dependencies have not completed.
type Tracker struct {
	completed map[string]bool
}

// NewTracker returns a tracker with nothing completed.
func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]bool)}
}

// Start checks that stepName may run now.
func (t *Tracker) Start(stepName string) error {
	return ValidateDependencies(t.completed, stepName)
}

// Complete marks stepName as done.
func (t *Tracker) Complete(stepName string) {
	t.completed[stepName] = true
}

// Completed reports whether stepName is done.
func (t *Tracker) Completed(stepName string) bool {
	return t.completed[stepName]
}
