package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEligiblePath means no path group's condition matched the resolved
// options. That is a catalog inconsistency, not a user error.
var ErrNoEligiblePath = errors.New("no eligible path templates found")

// OptionErrors aggregates every validation failure for one dataset
// configuration. Batch mode reports them together, grouped by kind, instead
// of failing on the first problem.
type OptionErrors struct {
	Invalid []string
	Missing []string
}

func (e *OptionErrors) Empty() bool {
	return e == nil || (len(e.Invalid) == 0 && len(e.Missing) == 0)
}

func (e *OptionErrors) Error() string {
	blocks := make([]string, 0, 2)
	for _, group := range []struct {
		label string
		lines []string
	}{
		{"Invalid option", e.Invalid},
		{"Missing option", e.Missing},
	} {
		if len(group.lines) == 0 {
			continue
		}
		label := group.label
		if len(group.lines) > 1 {
			label += "s"
		}
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", label, strings.Join(group.lines, "\n")))
	}
	return strings.Join(blocks, "\n\n")
}
