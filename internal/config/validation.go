package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Rule and assembly IDs must be alphanumeric with dashes and underscores
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateRuleSet performs structural validation of a rule set.
// Returns an error describing all validation failures found.
func ValidateRuleSet(rs *RuleSet) error {
	var errors []string

	if rs.Version == "" {
		errors = append(errors, "rule set version is required")
	} else if _, err := semver.NewVersion(rs.Version); err != nil {
		errors = append(errors, fmt.Sprintf("rule set version %q is not valid semver: %v", rs.Version, err))
	}

	if len(rs.Helpers) == 0 {
		errors = append(errors, "rule set must declare at least one helper")
	}

	seenHelpers := make(map[string]bool)
	for i, h := range rs.Helpers {
		if err := validateID("helper", i, h.ID); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if seenHelpers[h.ID] {
			errors = append(errors, fmt.Sprintf("duplicate helper id: %s", h.ID))
		}
		seenHelpers[h.ID] = true
		if len(h.Compute) == 0 {
			errors = append(errors, fmt.Sprintf("helper %s has no compute entries", h.ID))
		}
		for field, expression := range h.Compute {
			if strings.TrimSpace(expression) == "" {
				errors = append(errors, fmt.Sprintf("helper %s: empty expression for field %s", h.ID, field))
			}
		}
	}

	for i, r := range rs.Connections {
		if err := validateOptionRule("connection rule", i, r); err != nil {
			errors = append(errors, err.Error())
		}
	}
	for i, r := range rs.Materials {
		if err := validateOptionRule("material rule", i, r); err != nil {
			errors = append(errors, err.Error())
		}
	}

	seenValidations := make(map[string]bool)
	for i, v := range rs.Validations {
		if err := validateID("validation", i, v.ID); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if seenValidations[v.ID] {
			errors = append(errors, fmt.Sprintf("duplicate validation id: %s", v.ID))
		}
		seenValidations[v.ID] = true
		if strings.TrimSpace(v.Assert) == "" {
			errors = append(errors, fmt.Sprintf("validation %s: assert expression is required", v.ID))
		}
		if v.Message == "" {
			errors = append(errors, fmt.Sprintf("validation %s: message is required", v.ID))
		}
		switch v.Level {
		case "", LevelError, LevelWarning, LevelInfo:
		default:
			errors = append(errors, fmt.Sprintf("validation %s: invalid level %q", v.ID, v.Level))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("rule set validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// ValidateAssemblies performs structural validation of assembly templates.
func ValidateAssemblies(assemblies []Assembly) error {
	var errors []string

	seen := make(map[string]bool)
	for i, a := range assemblies {
		if err := validateID("assembly", i, a.ID); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if seen[a.ID] {
			errors = append(errors, fmt.Sprintf("duplicate assembly id: %s", a.ID))
		}
		seen[a.ID] = true

		// The metadata pseudo-assembly carries no lines
		if a.ID == MetadataAssemblyID {
			continue
		}

		for j, line := range a.Lines {
			if strings.TrimSpace(line.Product) == "" {
				errors = append(errors, fmt.Sprintf("assembly %s, line %d: product template is required", a.ID, j))
			}
			if strings.TrimSpace(line.Qty) == "" {
				errors = append(errors, fmt.Sprintf("assembly %s, line %d: qty expression is required", a.ID, j))
			}
			if line.Unit == "" {
				errors = append(errors, fmt.Sprintf("assembly %s, line %d: unit is required", a.ID, j))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("assembly validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateOptionRule(kind string, index int, r OptionRule) error {
	if err := validateID(kind, index, r.ID); err != nil {
		return err
	}
	if len(r.Allow) == 0 && len(r.Exclude) == 0 {
		return fmt.Errorf("%s %s must declare an allow or exclude list", kind, r.ID)
	}
	return nil
}

func validateID(kind string, index int, id string) error {
	if id == "" {
		return fmt.Errorf("%s at index %d: id is required", kind, index)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s %q: id must be alphanumeric with dashes and underscores", kind, id)
	}
	return nil
}
