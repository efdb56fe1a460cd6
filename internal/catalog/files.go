package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Lister lists remote file identifiers under a path prefix. Implementations:
// the market API client, the object-store mirror, and test fakes. Listings
// must be idempotent; callers cache by prefix for the session.
type Lister interface {
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

// minListableSegments is the shallowest prefix the listing backend can be
// asked for. Prefixes shallower than this skip verification: "all" candidates
// pass through unchecked and "latest" groups resolve to nothing.
const minListableSegments = 3

// ResolveFiles turns file groups into confirmed remote files. "all" groups
// intersect their candidates with the prefix listing (dropping files that do
// not exist remotely, e.g. non-trading days); "latest" groups keep the
// lexicographically last listing entry matching their pattern. Results are
// unioned, deduplicated and sorted.
func ResolveFiles(ctx context.Context, groups []FileGroup, lister Lister) ([]string, error) {
	listings := make(map[string][]string)
	listed := make(map[string]bool)

	listPrefix := func(prefix string) ([]string, bool, error) {
		if done, ok := listed[prefix]; ok {
			return listings[prefix], done, nil
		}
		if len(strings.Split(prefix, "/")) < minListableSegments {
			listed[prefix] = false
			return nil, false, nil
		}
		files, err := lister.ListFiles(ctx, prefix)
		if err != nil {
			return nil, false, fmt.Errorf("list %q: %w", prefix, err)
		}
		listings[prefix] = files
		listed[prefix] = true
		return files, true, nil
	}

	resolved := make(map[string]struct{})

	for _, group := range groups {
		files, verified, err := listPrefix(group.Prefix)
		if err != nil {
			return nil, err
		}

		switch group.Kind {
		case GroupAll:
			if !verified {
				for _, candidate := range group.Candidates {
					resolved[candidate] = struct{}{}
				}
				continue
			}
			available := make(map[string]struct{}, len(files))
			for _, file := range files {
				available[file] = struct{}{}
			}
			for _, candidate := range group.Candidates {
				if _, ok := available[candidate]; ok {
					resolved[candidate] = struct{}{}
				}
			}
		case GroupLatest:
			if !verified {
				continue
			}
			var matches []string
			for _, file := range files {
				if loc := group.Pattern.FindStringIndex(file); loc != nil && loc[0] == 0 {
					matches = append(matches, file)
				}
			}
			if len(matches) == 0 {
				continue
			}
			sort.Strings(matches)
			resolved[matches[len(matches)-1]] = struct{}{}
		default:
			return nil, fmt.Errorf("unsupported file group kind: %q", group.Kind)
		}
	}

	out := make([]string, 0, len(resolved))
	for file := range resolved {
		out = append(out, file)
	}
	sort.Strings(out)
	return out, nil
}
