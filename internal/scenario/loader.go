package scenario

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Registry holds all available scenarios
type Registry struct {
	scenarios map[string]*Scenario
}

// NewRegistry creates a new scenario registry
func NewRegistry() *Registry {
	return &Registry{
		scenarios: make(map[string]*Scenario),
	}
}

// LoadBuiltin loads the scenarios compiled into the binary
func (r *Registry) LoadBuiltin() error {
	return r.LoadFromEmbedded(builtinFS, "builtin")
}

// LoadFromFile loads a scenario from a YAML file
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scenario file: %w", err)
	}
	return r.add(data)
}

// LoadFromDir loads all scenarios from a directory
func (r *Registry) LoadFromDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := r.LoadFromFile(path); err != nil {
			return fmt.Errorf("failed to load scenario from %s: %w", path, err)
		}
	}

	return nil
}

// LoadFromEmbedded loads scenarios from embedded filesystem
func (r *Registry) LoadFromEmbedded(fs embed.FS, dir string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read embedded scenarios: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %s: %w", p, err)
		}
		if err := r.add(data); err != nil {
			return fmt.Errorf("failed to load embedded scenario %s: %w", p, err)
		}
	}

	return nil
}

func (r *Registry) add(data []byte) error {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if scenario.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if !validDuration(scenario.Duration) {
		return fmt.Errorf("scenario %s: invalid duration %q", scenario.Name, scenario.Duration)
	}
	for _, p := range scenario.Phases {
		if !validDuration(p.Duration) {
			return fmt.Errorf("scenario %s: phase %s has invalid duration %q", scenario.Name, p.Name, p.Duration)
		}
	}

	r.scenarios[scenario.Name] = &scenario
	return nil
}

func validDuration(s string) bool {
	if s == "" || s == "unlimited" {
		return true
	}
	d, err := time.ParseDuration(s)
	return err == nil && d > 0
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Get retrieves a scenario by name
func (r *Registry) Get(name string) (*Scenario, error) {
	scenario, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("scenario '%s' not found", name)
	}
	return scenario, nil
}

// List returns all scenario names in alphabetical order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListWithDescriptions returns all scenarios with their descriptions
func (r *Registry) ListWithDescriptions() map[string]string {
	result := make(map[string]string)
	for name, scenario := range r.scenarios {
		result[name] = scenario.Description
	}
	return result
}
