package catalog

import (
	"fmt"
	"strings"
)

type ConditionKind string

const (
	ConditionOneOf ConditionKind = "oneof"
	ConditionAnd   ConditionKind = "and"
	ConditionOr    ConditionKind = "or"
)

// Condition gates an option or a path group on previously resolved options.
// The variant set is closed; Check dispatches exhaustively on Kind.
type Condition struct {
	Kind ConditionKind

	// oneof
	Option string
	Values []string

	// and / or
	Conditions []Condition
}

// Check evaluates the condition against the options resolved so far.
//
// A oneof condition whose option is not present in results evaluates to true:
// conditions may be declared before their dependency is known to be absent.
// This mirrors the catalog's historical behavior; a condition can silently
// pass because its dependency was never asked. Do not tighten it without
// confirming with the catalog owners.
func (c Condition) Check(results *ResultSet) bool {
	switch c.Kind {
	case ConditionOneOf:
		result, ok := results.Get(c.Option)
		if !ok {
			return true
		}
		value, ok := result.Value.(string)
		if !ok {
			return false
		}
		for _, allowed := range c.Values {
			if allowed == value {
				return true
			}
		}
		return false
	case ConditionAnd:
		for _, child := range c.Conditions {
			if !child.Check(results) {
				return false
			}
		}
		return true
	case ConditionOr:
		for _, child := range c.Conditions {
			if child.Check(results) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (c Condition) Validate() error {
	switch c.Kind {
	case ConditionOneOf:
		if strings.TrimSpace(c.Option) == "" {
			return fmt.Errorf("oneof condition requires an option id")
		}
		if len(c.Values) == 0 {
			return fmt.Errorf("oneof condition requires values")
		}
	case ConditionAnd, ConditionOr:
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%s condition requires nested conditions", c.Kind)
		}
		for _, child := range c.Conditions {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported condition type: %q", c.Kind)
	}
	return nil
}

// ConditionDoc is the wire shape of a condition in catalog documents. Nested
// conditions of and/or groups arrive under "options", as the upstream catalog
// serializes them.
type ConditionDoc struct {
	Type    string         `json:"type" yaml:"type"`
	Option  string         `json:"option,omitempty" yaml:"option,omitempty"`
	Values  []string       `json:"values,omitempty" yaml:"values,omitempty"`
	Options []ConditionDoc `json:"options,omitempty" yaml:"options,omitempty"`
}

func buildCondition(doc ConditionDoc) (Condition, error) {
	kind := ConditionKind(strings.ToLower(strings.TrimSpace(doc.Type)))
	cond := Condition{Kind: kind}

	switch kind {
	case ConditionOneOf:
		cond.Option = strings.TrimSpace(doc.Option)
		cond.Values = doc.Values
	case ConditionAnd, ConditionOr:
		cond.Conditions = make([]Condition, 0, len(doc.Options))
		for _, childDoc := range doc.Options {
			child, err := buildCondition(childDoc)
			if err != nil {
				return Condition{}, err
			}
			cond.Conditions = append(cond.Conditions, child)
		}
	default:
		return Condition{}, fmt.Errorf("unsupported condition type: %q", doc.Type)
	}

	if err := cond.Validate(); err != nil {
		return Condition{}, err
	}
	return cond, nil
}
