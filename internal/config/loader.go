package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// LoadRuleSet loads and parses a rule set from a YAML file.
// The document is schema-validated and structurally validated before return.
func LoadRuleSet(path string) (*RuleSet, error) {
	// Security: Use os.OpenRoot to prevent path traversal attacks
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule set directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule set: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	return LoadRuleSetFromReader(file)
}

// LoadRuleSetFromReader loads a rule set from an io.Reader.
// Useful for testing with in-memory YAML data.
func LoadRuleSetFromReader(r io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set: %w", err)
	}

	if err := ValidateRuleSetSchema(data); err != nil {
		return nil, err
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to decode rule set YAML: %w", err)
	}

	if err := ValidateRuleSet(&rs); err != nil {
		return nil, err
	}

	return &rs, nil
}

// LoadAssemblies loads and parses assembly templates from a YAML file.
func LoadAssemblies(path string) ([]Assembly, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open assemblies directory: %w", err)
	}
	defer func() {
		_ = root.Close() // Best-effort cleanup
	}()

	file, err := root.Open(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open assemblies: %w", err)
	}
	defer func() {
		_ = file.Close() // Best-effort cleanup
	}()

	return LoadAssembliesFromReader(file)
}

// LoadAssembliesFromReader loads assembly templates from an io.Reader.
func LoadAssembliesFromReader(r io.Reader) ([]Assembly, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read assemblies: %w", err)
	}

	var assemblies []Assembly
	if err := yaml.Unmarshal(data, &assemblies); err != nil {
		return nil, fmt.Errorf("failed to decode assemblies YAML: %w", err)
	}

	if err := ValidateAssemblies(assemblies); err != nil {
		return nil, err
	}

	return assemblies, nil
}
