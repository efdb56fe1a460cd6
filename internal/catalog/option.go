package catalog

import (
	"fmt"
	"strings"
	"time"
)

type OptionKind string

const (
	OptionText   OptionKind = "text"
	OptionSelect OptionKind = "select"
	OptionDate   OptionKind = "date"
)

type TextTransform string

const (
	TransformLowercase TextTransform = "lowercase"
	TransformUppercase TextTransform = "uppercase"
)

func (t TextTransform) Apply(value string) string {
	switch t {
	case TransformLowercase:
		return strings.ToLower(value)
	case TransformUppercase:
		return strings.ToUpper(value)
	default:
		return value
	}
}

// Choice is one select entry: the display key shown to users and the internal
// value substituted into path templates. Declaration order is preserved.
type Choice struct {
	Key   string
	Value string
}

// Option is one configurable knob of a dataset. The kind set is closed
// (text, select, date); kind-specific fields are only meaningful for their
// kind.
type Option struct {
	ID          string
	Label       string
	Description string
	Condition   *Condition
	Kind        OptionKind

	// text
	Transform TextTransform
	Multiple  bool

	// select
	Choices []Choice

	// date
	StartEnd bool
}

const dateLayoutCompact = "20060102"
const dateLayoutDashed = "2006-01-02"

// Parse converts raw user input into an OptionResult without prompting.
// The returned error message is user-facing.
func (o Option) Parse(input string) (OptionResult, error) {
	switch o.Kind {
	case OptionText:
		return o.parseText(input)
	case OptionSelect:
		return o.parseSelect(input)
	case OptionDate:
		return o.parseDate(input)
	default:
		return OptionResult{}, fmt.Errorf("unsupported option kind: %q", o.Kind)
	}
}

func (o Option) parseText(input string) (OptionResult, error) {
	if strings.TrimSpace(input) == "" {
		return OptionResult{}, fmt.Errorf("value cannot be a blank string")
	}

	if o.Multiple {
		parts := make([]string, 0)
		values := make([]string, 0)
		for _, part := range strings.Split(input, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			parts = append(parts, part)
			values = append(values, o.Transform.Apply(part))
		}
		return OptionResult{Value: values, Label: strings.Join(parts, ", ")}, nil
	}

	return OptionResult{Value: o.Transform.Apply(input), Label: input}, nil
}

func (o Option) parseSelect(input string) (OptionResult, error) {
	for _, choice := range o.Choices {
		if strings.EqualFold(choice.Key, input) {
			return OptionResult{Value: choice.Value, Label: choice.Key}, nil
		}
	}

	message := fmt.Sprintf("'%s' is not a valid option", input)
	if len(o.Choices) <= 5 {
		keys := make([]string, 0, len(o.Choices))
		for _, choice := range o.Choices {
			keys = append(keys, choice.Key)
		}
		message += fmt.Sprintf(", please choose one of the following: %s", strings.Join(keys, ", "))
	} else {
		message += fmt.Sprintf(", please specify a value like '%s'", o.shortestChoiceKey())
	}
	return OptionResult{}, fmt.Errorf("%s", message)
}

func (o Option) parseDate(input string) (OptionResult, error) {
	for _, layout := range []string{dateLayoutCompact, dateLayoutDashed} {
		if date, err := time.Parse(layout, input); err == nil {
			return OptionResult{Value: date, Label: date.Format(dateLayoutDashed)}, nil
		}
	}
	return OptionResult{}, fmt.Errorf("'%s' does not match the yyyyMMdd format", input)
}

// Placeholder documents the expected value shape when listing this option as
// "--id <value>" in batch error reports.
func (o Option) Placeholder() string {
	switch o.Kind {
	case OptionText:
		if o.Multiple {
			return "values"
		}
		return "value"
	case OptionSelect:
		if len(o.Choices) <= 5 {
			keys := make([]string, 0, len(o.Choices))
			for _, choice := range o.Choices {
				keys = append(keys, choice.Key)
			}
			return strings.Join(keys, "|")
		}
		return fmt.Sprintf("value (example: %s)", o.shortestChoiceKey())
	case OptionDate:
		return "yyyyMMdd"
	default:
		return "value"
	}
}

func (o Option) shortestChoiceKey() string {
	shortest := ""
	for _, choice := range o.Choices {
		if shortest == "" || len(choice.Key) < len(shortest) {
			shortest = choice.Key
		}
	}
	return shortest
}

func (o Option) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("option id is required")
	}
	switch o.Kind {
	case OptionText:
		switch o.Transform {
		case "", TransformLowercase, TransformUppercase:
		default:
			return fmt.Errorf("option %q: unsupported transform %q", o.ID, o.Transform)
		}
	case OptionSelect:
		if len(o.Choices) == 0 {
			return fmt.Errorf("option %q: select requires choices", o.ID)
		}
	case OptionDate:
	default:
		return fmt.Errorf("option %q: unsupported kind %q", o.ID, o.Kind)
	}
	if o.Condition != nil {
		if err := o.Condition.Validate(); err != nil {
			return fmt.Errorf("option %q: %w", o.ID, err)
		}
	}
	return nil
}
