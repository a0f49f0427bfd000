package rules

import "time"

// ValidationResult is the outcome of one validation rule.
type ValidationResult struct {
	ID      string `json:"id" yaml:"id"`
	Level   string `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
	Passed  bool   `json:"passed" yaml:"passed"`
}

// ConnectionAvailability reports whether one connection code is available
// for the evaluated configuration.
type ConnectionAvailability struct {
	Code      string `json:"code" yaml:"code"`
	Available bool   `json:"available" yaml:"available"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// MaterialCompatibility reports whether one material code is compatible
// with the evaluated configuration.
type MaterialCompatibility struct {
	Code       string `json:"code" yaml:"code"`
	Compatible bool   `json:"compatible" yaml:"compatible"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BOMLine is one unpriced bill-of-materials line.
type BOMLine struct {
	Product     string  `json:"product" yaml:"product"`
	Name        string  `json:"name" yaml:"name"`
	Qty         float64 `json:"qty" yaml:"qty"`
	Unit        string  `json:"unit" yaml:"unit"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Result is the complete output of one rules evaluation.
type Result struct {
	Valid          bool                     `json:"valid" yaml:"valid"`
	Context        Context                  `json:"context" yaml:"context"`
	Validations    []ValidationResult       `json:"validations" yaml:"validations"`
	Connections    []ConnectionAvailability `json:"connections" yaml:"connections"`
	Materials      []MaterialCompatibility  `json:"materials" yaml:"materials"`
	BOM            []BOMLine                `json:"bom" yaml:"bom"`
	Explanations   []string                 `json:"explanations,omitempty" yaml:"explanations,omitempty"`
	RuleSetVersion string                   `json:"rule_set_version" yaml:"rule_set_version"`
	ComputedAt     time.Time                `json:"computed_at" yaml:"computed_at"`
}

// Errors returns the messages of failed error-level validations, in
// declaration order.
func (r *Result) Errors() []string {
	return r.failedMessages("error")
}

// Warnings returns the messages of failed warning-level validations, in
// declaration order.
func (r *Result) Warnings() []string {
	return r.failedMessages("warning")
}

func (r *Result) failedMessages(level string) []string {
	var msgs []string
	for _, v := range r.Validations {
		if !v.Passed && v.Level == level {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}
