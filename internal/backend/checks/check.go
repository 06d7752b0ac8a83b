package checks

import (
	"fmt"
	"sort"
)

// Check inspects uploaded bytes and reports why they are not an acceptable image
type Check interface {
	Name() string
	Run(imageData []byte) error
}

// CheckFactory creates a check from configuration parameters
type CheckFactory func(params map[string]any) (Check, error)

// CheckRegistry manages the registration and creation of image checks
type CheckRegistry struct {
	factories map[string]CheckFactory
}

// DefaultRegistry holds every check shipped with the service
var DefaultRegistry = NewCheckRegistry()

// NewCheckRegistry creates a new check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{
		factories: make(map[string]CheckFactory),
	}
}

// Register adds a check factory to the registry
func (r *CheckRegistry) Register(name string, factory CheckFactory) error {
	if name == "" {
		return fmt.Errorf("check name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("check factory cannot be nil")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("check %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates a check by name with the given parameters
func (r *CheckRegistry) Create(name string, params map[string]any) (Check, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown check: %s", name)
	}

	check, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create check %s: %w", name, err)
	}

	return check, nil
}

// IsRegistered checks if a check with the given name is registered
func (r *CheckRegistry) IsRegistered(name string) bool {
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns a sorted list of all registered check names
func (r *CheckRegistry) GetRegisteredNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
