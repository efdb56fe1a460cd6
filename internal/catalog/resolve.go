package catalog

import (
	"fmt"
	"strings"
)

// InputSource supplies raw option values. The batch implementation is
// MapSource; interactive front-ends satisfy the same interface with a
// prompter.
type InputSource interface {
	Lookup(option Option) (string, bool)
}

// MapSource answers lookups from a fixed key -> value map. Keys with dashes
// may arrive with underscores instead (CLI flag names normalize that way).
type MapSource map[string]string

func (m MapSource) Lookup(option Option) (string, bool) {
	if value, ok := m[option.ID]; ok {
		return value, true
	}
	value, ok := m[strings.ReplaceAll(option.ID, "-", "_")]
	return value, ok
}

// ResolveOptions walks the dataset's options in declaration order, skipping
// options whose condition is false against the options resolved so far, and
// parses each remaining option's input. All invalid and missing options are
// collected and returned as one *OptionErrors.
func ResolveOptions(ds Dataset, src InputSource) (*ResultSet, error) {
	results := NewResultSet()
	collected := &OptionErrors{}

	for _, option := range ds.Options {
		if option.Condition != nil && !option.Condition.Check(results) {
			continue
		}

		raw, ok := src.Lookup(option)
		if !ok {
			collected.Missing = append(collected.Missing,
				fmt.Sprintf("--%s <%s>: %s", option.ID, option.Placeholder(), option.Description))
			continue
		}

		result, err := option.Parse(raw)
		if err != nil {
			collected.Invalid = append(collected.Invalid,
				fmt.Sprintf("--%s: %s", option.ID, err.Error()))
			continue
		}
		results.Put(option.ID, result)
	}

	if !collected.Empty() {
		return nil, collected
	}
	return results, nil
}
