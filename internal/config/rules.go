// Package config provides rule-set and assembly configuration loading and
// validation for crossquote. It handles YAML parsing and structural checks;
// expression compilation happens in the rules package.
package config

// RuleSet represents a complete versioned rule configuration.
// It drives helper computation, validation, option filtering and assembly
// matching for a quote evaluation.
type RuleSet struct {
	Version     string       `yaml:"version" json:"version"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Helpers     []Helper     `yaml:"helpers" json:"helpers"`
	Connections []OptionRule `yaml:"connections" json:"connections"`
	Materials   []OptionRule `yaml:"materials,omitempty" json:"materials,omitempty"`
	Validations []Validation `yaml:"validations" json:"validations"`
}

// Helper is a named group of derived-field computations. Each entry in
// Compute maps a context field name to an expression evaluated against the
// accumulating context. Helpers run in declared order; later helpers may
// read fields written by earlier ones.
type Helper struct {
	ID          string            `yaml:"id" json:"id"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Compute     map[string]string `yaml:"compute" json:"compute"`
}

// OptionRule allows or excludes connection or material codes when its
// condition matches the evaluation context. A nil When always matches.
type OptionRule struct {
	ID          string         `yaml:"id" json:"id"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	When        map[string]any `yaml:"when,omitempty" json:"when,omitempty"`
	Allow       []string       `yaml:"allow,omitempty" json:"allow,omitempty"`
	Exclude     []string       `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Reason      string         `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Validation is a boolean assertion over the final evaluation context.
type Validation struct {
	ID      string `yaml:"id" json:"id"`
	Assert  string `yaml:"assert" json:"assert"`
	Message string `yaml:"message" json:"message"`
	Level   string `yaml:"level,omitempty" json:"level,omitempty"`
}

// Validation levels. Only error-level failures affect quote validity.
const (
	LevelError   = "error"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// EffectiveLevel returns the validation level, defaulting to error.
func (v Validation) EffectiveLevel() string {
	if v.Level == "" {
		return LevelError
	}
	return v.Level
}

// Assembly is a BOM-generation template. When its selector matches the
// evaluation context, each line contributes to the output BOM.
//
// The id "metadata" is reserved for documentation entries and is skipped
// during BOM generation, as are assemblies without lines.
type Assembly struct {
	ID          string         `yaml:"id" json:"id"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Selector    map[string]any `yaml:"selector" json:"selector"`
	Lines       []AssemblyLine `yaml:"lines,omitempty" json:"lines,omitempty"`
}

// MetadataAssemblyID marks a pseudo-assembly carrying document metadata.
const MetadataAssemblyID = "metadata"

// AssemblyLine describes one templated BOM line. Product may embed
// substitution tokens such as {material} and {connection}; Qty is an
// expression evaluated against the context.
type AssemblyLine struct {
	Product     string `yaml:"product" json:"product"`
	Qty         string `yaml:"qty" json:"qty"`
	Unit        string `yaml:"unit" json:"unit"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}
