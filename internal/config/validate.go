package config

import (
	"fmt"
	"strings"
)

// ValidationRule is one pluggable validation pass over a Document,
// mirroring the teacher's internal/config/validator.go ValidationRule
// interface (there keyed on AdvancedConfig; here on Document).
type ValidationRule interface {
	Validate(doc *Document) error
	Description() string
}

// Validator runs every registered ValidationRule and joins their
// failures into a single error, grounded on the teacher's ConfigValidator.
type Validator struct {
	rules []ValidationRule
}

// NewValidator builds a Validator with Visor's default rule set (§4.9,
// §7's config/* error kinds).
func NewValidator() *Validator {
	v := &Validator{}
	v.AddRule(&checkTypeRule{})
	v.AddRule(&dependencyReferenceRule{})
	v.AddRule(&onFinishRequiresForEachRule{})
	v.AddRule(&maxParallelismRule{})
	return v
}

// AddRule registers an additional rule, letting an embedding caller extend
// validation without forking this package.
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate runs every rule, collecting all failures rather than stopping
// at the first (teacher's ConfigValidator.Validate does the same).
func (v *Validator) Validate(doc *Document) error {
	var problems []string
	for _, rule := range v.rules {
		if err := rule.Validate(doc); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", rule.Description(), err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

type checkTypeRule struct{}

func (r *checkTypeRule) Description() string { return "check type required" }

func (r *checkTypeRule) Validate(doc *Document) error {
	for id, check := range doc.Checks {
		if check.Type == "" {
			return fmt.Errorf("check %q: type is required", id)
		}
	}
	return nil
}

// dependencyReferenceRule rejects a depends_on entry naming a check that
// doesn't exist, expanding ANY-OF ("a|b") groups before the existence
// check (§3: "strings containing | form ANY-OF").
type dependencyReferenceRule struct{}

func (r *dependencyReferenceRule) Description() string { return "dependency references" }

func (r *dependencyReferenceRule) Validate(doc *Document) error {
	for id, check := range doc.Checks {
		for _, dep := range check.DependsOn {
			for _, arm := range strings.Split(dep, "|") {
				arm = strings.TrimSpace(arm)
				if arm == "" {
					return fmt.Errorf("check %q: empty dependency reference", id)
				}
				if _, ok := doc.Checks[arm]; !ok {
					return fmt.Errorf("check %q: depends_on references unknown check %q", id, arm)
				}
			}
		}
	}
	return nil
}

// onFinishRequiresForEachRule enforces §3's invariant: "onFinish is only
// valid where forEach: true; validated at load."
type onFinishRequiresForEachRule struct{}

func (r *onFinishRequiresForEachRule) Description() string { return "on_finish requires forEach" }

func (r *onFinishRequiresForEachRule) Validate(doc *Document) error {
	for id, check := range doc.Checks {
		if check.OnFinish != nil && !check.OnFinish.IsZero() && !check.ForEach {
			return fmt.Errorf("check %q: on_finish is only valid on a forEach check", id)
		}
	}
	return nil
}

type maxParallelismRule struct{}

func (r *maxParallelismRule) Description() string { return "max_parallelism range" }

func (r *maxParallelismRule) Validate(doc *Document) error {
	if doc.MaxParallelism < 1 {
		return fmt.Errorf("max_parallelism must be at least 1, got %d", doc.MaxParallelism)
	}
	if doc.MaxParallelism > 256 {
		return fmt.Errorf("max_parallelism too high: %d (max 256)", doc.MaxParallelism)
	}
	return nil
}
