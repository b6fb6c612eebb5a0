package domain

import (
	"regexp"
	"sort"
)

// ReferencePattern matches a template variable reference such as {{user.name}}.
var ReferencePattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

// References scans every string leaf of a data tree and returns the distinct
// variable names referenced, in first-seen order. Map keys are visited in sorted
// order so the result is deterministic.
func References(v any) []string {
	seen := make(map[string]bool)
	var refs []string
	scanReferences(v, seen, &refs)
	return refs
}

func scanReferences(v any, seen map[string]bool, refs *[]string) {
	switch t := v.(type) {
	case string:
		for _, m := range ReferencePattern.FindAllStringSubmatch(t, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				*refs = append(*refs, m[1])
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			scanReferences(t[k], seen, refs)
		}
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			scanReferences(t[k], seen, refs)
		}
	case []any:
		for _, e := range t {
			scanReferences(e, seen, refs)
		}
	case []string:
		for _, e := range t {
			scanReferences(e, seen, refs)
		}
	case []map[string]any:
		for _, e := range t {
			scanReferences(e, seen, refs)
		}
	}
}

// DiffReferences compares the references of two data trees.
// removed holds names present only in oldData, added names present only in newData.
func DiffReferences(oldData, newData any) (removed, added []string) {
	oldRefs := References(oldData)
	newRefs := References(newData)

	inOld := make(map[string]bool, len(oldRefs))
	for _, r := range oldRefs {
		inOld[r] = true
	}
	inNew := make(map[string]bool, len(newRefs))
	for _, r := range newRefs {
		inNew[r] = true
	}

	for _, r := range oldRefs {
		if !inNew[r] {
			removed = append(removed, r)
		}
	}
	for _, r := range newRefs {
		if !inOld[r] {
			added = append(added, r)
		}
	}
	return removed, added
}
