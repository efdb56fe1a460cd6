package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// SelectPath picks the first path group whose condition is absent or true for
// the resolved options. Exactly one path is ever selected; if none match the
// catalog entry is inconsistent.
func SelectPath(ds Dataset, results *ResultSet) (Path, error) {
	for _, path := range ds.Paths {
		if path.Condition == nil || path.Condition.Check(results) {
			return path, nil
		}
	}
	return Path{}, fmt.Errorf("dataset %q: %w", ds.Name, ErrNoEligiblePath)
}

// RenderTemplate substitutes every {name} occurrence with the stringified
// variable value. Dates render as yyyyMMdd.
func RenderTemplate(template string, vars map[string]any) string {
	for key, value := range vars {
		template = strings.ReplaceAll(template, "{"+key+"}", stringifyVar(value))
	}
	return template
}

func stringifyVar(value any) string {
	switch typed := value.(type) {
	case time.Time:
		return typed.Format(dateLayoutCompact)
	case []string:
		return strings.Join(typed, ",")
	case string:
		return typed
	default:
		return fmt.Sprintf("%v", typed)
	}
}

type GroupKind string

const (
	// GroupAll candidates are verified against a directory listing and every
	// confirmed file is wanted.
	GroupAll GroupKind = "all"
	// GroupLatest selects the single most recent file matching a rendered
	// regex (lexicographically last in the listing).
	GroupLatest GroupKind = "latest"
)

// FileGroup is one unit of file discovery: a listing prefix plus either a
// concrete candidate set (all) or a pattern (latest).
type FileGroup struct {
	Kind       GroupKind
	Prefix     string
	Candidates []string
	Pattern    *regexp.Regexp
}

// FileGroups expands a product's selected path group into file groups. A
// multi-valued text option fans the expansion out once per element; a
// start/end date pair expands date-bearing templates once per calendar day.
func FileGroups(p Product) ([]FileGroup, error) {
	path, err := SelectPath(p.Dataset, p.Results)
	if err != nil {
		return nil, err
	}

	vars := p.Results.Values()

	if multiple, ok := p.Dataset.MultipleTextOption(); ok {
		if result, resolved := p.Results.Get(multiple.ID); resolved {
			if values, isList := result.Value.([]string); isList {
				var groups []FileGroup
				for _, element := range values {
					fanned := make(map[string]any, len(vars))
					for k, v := range vars {
						fanned[k] = v
					}
					fanned[multiple.ID] = element
					expanded, err := buildGroups(p.Dataset, path, fanned)
					if err != nil {
						return nil, err
					}
					groups = append(groups, expanded...)
				}
				return groups, nil
			}
		}
	}

	return buildGroups(p.Dataset, path, vars)
}

func buildGroups(ds Dataset, path Path, vars map[string]any) ([]FileGroup, error) {
	groups := make([]FileGroup, 0, len(path.Templates.All)+len(path.Templates.Latest))

	start, hasStart := vars["start"].(time.Time)
	end, hasEnd := vars["end"].(time.Time)
	expandDates := ds.HasStartEnd() && hasStart && hasEnd

	for _, template := range path.Templates.All {
		candidates := make(map[string]struct{})

		if expandDates {
			daily := make(map[string]any, len(vars)+4)
			for k, v := range vars {
				daily[k] = v
			}
			for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
				daily["date"] = date
				daily["year"] = date.Format("2006")
				daily["month"] = date.Format("01")
				daily["day"] = date.Format("02")
				candidates[RenderTemplate(template, daily)] = struct{}{}
			}
		} else {
			candidates[RenderTemplate(template, vars)] = struct{}{}
		}

		sorted := make([]string, 0, len(candidates))
		for candidate := range candidates {
			sorted = append(sorted, candidate)
		}
		sort.Strings(sorted)

		groups = append(groups, FileGroup{
			Kind:       GroupAll,
			Prefix:     commonPrefix(sorted),
			Candidates: sorted,
		})
	}

	for _, template := range path.Templates.Latest {
		rendered := RenderTemplate(template, vars)
		pattern, err := regexp.Compile(rendered)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: latest template %q: %w", ds.Name, template, err)
		}
		groups = append(groups, FileGroup{
			Kind:    GroupLatest,
			Prefix:  listingPrefix(rendered),
			Pattern: pattern,
		})
	}

	return groups, nil
}

// commonPrefix returns the longest prefix shared by all values.
func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	shortest := values[0]
	for _, value := range values[1:] {
		if len(value) < len(shortest) {
			shortest = value
		}
	}
	for i := 0; i < len(shortest); i++ {
		for _, value := range values {
			if value[i] != shortest[i] {
				return shortest[:i]
			}
		}
	}
	return shortest
}

// listingPrefix cuts a rendered regex down to the literal prefix before the
// first grouping or class metacharacter, which is what the listing API can be
// asked for.
func listingPrefix(rendered string) string {
	if i := strings.IndexAny(rendered, "[]()"); i >= 0 {
		return rendered[:i]
	}
	return rendered
}
