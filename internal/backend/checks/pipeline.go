package checks

import (
	"fmt"
	"log/slog"
)

// Spec names one configured check
type Spec struct {
	Name   string
	Params map[string]any
}

// Pipeline runs checks in order and stops at the first failure
type Pipeline struct {
	checks []Check
}

// NewPipeline builds a pipeline from the registry
func NewPipeline(registry *CheckRegistry, specs []Spec) (*Pipeline, error) {
	pipeline := &Pipeline{checks: make([]Check, 0, len(specs))}
	for _, spec := range specs {
		check, err := registry.Create(spec.Name, spec.Params)
		if err != nil {
			return nil, err
		}
		pipeline.checks = append(pipeline.checks, check)
	}
	return pipeline, nil
}

// Run executes every check against imageData
func (p *Pipeline) Run(imageData []byte) error {
	for _, check := range p.checks {
		if err := check.Run(imageData); err != nil {
			slog.Debug("Pipeline: check rejected upload", "check", check.Name(), "error", err)
			return err
		}
	}
	return nil
}

// Names returns the configured check names in execution order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.checks))
	for i, check := range p.checks {
		names[i] = check.Name()
	}
	return names
}

func init() {
	for name, factory := range map[string]CheckFactory{
		"DecodeCheck":    NewDecodeCheck,
		"DimensionCheck": NewDimensionCheck,
	} {
		if err := DefaultRegistry.Register(name, factory); err != nil {
			panic(fmt.Sprintf("failed to register %s: %v", name, err))
		}
	}
}
